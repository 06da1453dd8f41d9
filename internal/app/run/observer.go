package run

import (
	"time"

	"github.com/John-Robertt/nftrenum/internal/config"
	"github.com/John-Robertt/nftrenum/internal/domain"
)

// Observer 用于把“运行进度/集合/条目结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件全部来自调用 ExecuteWithObserver 的 goroutine，按发生顺序投递。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnCollectionStart 在开始处理某个集合前调用（模板检查之前）。
	OnCollectionStart(c domain.Collection, dir string, r domain.IndexRange)
	// OnItemDone 在某个 index 处理结束时调用（成功、失败或 dry-run 规划）。
	OnItemDone(c domain.Collection, idx, total int, res domain.ItemResult, dur time.Duration)
	// OnCollectionDone 在集合处理结束时调用（含跳过/失败）。
	OnCollectionDone(res domain.CollectionResult, dur time.Duration)
}
