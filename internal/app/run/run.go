package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/nftrenum/internal/app/planner"
	"github.com/John-Robertt/nftrenum/internal/config"
	"github.com/John-Robertt/nftrenum/internal/domain"
	"github.com/John-Robertt/nftrenum/internal/infra/fsx"
	"github.com/John-Robertt/nftrenum/internal/infra/lockx"
	"github.com/John-Robertt/nftrenum/internal/metadata"
	"github.com/John-Robertt/nftrenum/internal/rewrite"
)

// Execute 执行一次 run，并返回对外稳定的 RunReport。
// 错误一律“降级”为集合级失败：一个集合失败不影响另一个集合。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度（由上层决定是否启用）。
// 日志通过 zerolog.Ctx(ctx) 获取；ctx 中没有 logger 时不输出日志。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:       uuid.NewString(),
		BasePath:    eff.BasePath,
		DryRun:      eff.DryRun,
		Start:       eff.Start,
		End:         eff.End,
		StartedAt:   started,
		Collections: make([]domain.CollectionResult, 0, len(eff.Collections)),
	}

	log := zerolog.Ctx(ctx).With().Str("run_id", rr.RunID).Logger()
	ctx = log.WithContext(ctx)

	g := Generator{
		Rewriter: rewrite.New(eff.ImageBaseURL),
		DryRun:   eff.DryRun,
		Observer: obs,
	}
	r := domain.IndexRange{Start: eff.Start, End: eff.End}

	// 集合之间严格串行：先 burn 后 mint。
	for _, c := range eff.Collections {
		dir := eff.CollectionDir(c)
		collStarted := time.Now()
		if obs != nil {
			obs.OnCollectionStart(c, dir, r)
		}

		res := g.Collection(ctx, c, dir, r)
		rr.Collections = append(rr.Collections, res)

		if obs != nil {
			obs.OnCollectionDone(res, time.Since(collStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// maxItemsPrealloc 限制 Items 的预分配容量；更大的区间按需增长。
const maxItemsPrealloc = 1024

// Generator 负责单个集合的批量生成。
type Generator struct {
	Rewriter *rewrite.Rewriter
	DryRun   bool
	Observer Observer
}

// Collection 为 dir 下的集合生成 [r.Start, r.End] 的全部图片与元数据。
//
// 流程：检查模板 → 解析模板元数据（只读一次）→ 建目录 + 加锁 → 按 index 升序逐个生成。
// 任何 index 失败都会中止该集合剩余的 index；已写出的文件保持原样。
func (g Generator) Collection(ctx context.Context, c domain.Collection, dir string, r domain.IndexRange) domain.CollectionResult {
	log := zerolog.Ctx(ctx).With().Str("collection", c.Label()).Str("dir", dir).Logger()

	res := domain.CollectionResult{
		Collection: c.Label(),
		Dir:        dir,
		Items:      make([]domain.ItemResult, 0, min(r.Len(), maxItemsPrealloc)),
	}

	if !r.Fits() {
		err := fmt.Errorf("区间 %d..%d 的长度超出 int 范围", r.Start, r.End)
		log.Error().Err(err).Msg("区间无效")
		return withError(res, domain.StatusFailed, domain.ErrCodeRangeInvalid, err)
	}

	plan, err := planner.PlanCollection(c, dir, r)
	if err != nil {
		if planner.IsSourceMissing(err) {
			log.Warn().Err(err).Msg("模板文件缺失，跳过该集合")
			return withError(res, domain.StatusSkipped, domain.ErrCodeSourceMissing, err)
		}
		log.Error().Err(err).Msg("检查模板失败")
		return withError(res, domain.StatusFailed, domain.ErrCodeIOFailed, err)
	}

	tmpl, err := metadata.ReadFile(plan.Layout.InputMetadata)
	if err != nil {
		code := domain.ErrCodeIOFailed
		if metadata.IsDecodeError(err) {
			code = domain.ErrCodeMetadataInvalid
		}
		log.Error().Err(err).Str("path", plan.Layout.InputMetadata).Msg("读取模板元数据失败，跳过该集合")
		return withError(res, domain.StatusFailed, code, err)
	}

	log.Info().Int("start", r.Start).Int("end", r.End).Int("total", r.Len()).Bool("dry_run", g.DryRun).Msg("开始处理集合")

	if g.DryRun {
		return g.plan(res, plan)
	}

	lock, err := lockx.TryAcquire(filepath.Join(plan.Layout.Dir, "output"))
	if err != nil {
		code := domain.ErrCodeIOFailed
		if errors.Is(err, lockx.ErrLocked) {
			code = domain.ErrCodeLocked
		}
		log.Error().Err(err).Msg("无法锁定输出目录")
		return withError(res, domain.StatusFailed, code, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Str("lock", lock.Path()).Msg("释放锁失败")
		}
	}()

	for _, d := range []string{plan.Layout.OutputImages, plan.Layout.OutputMetadata} {
		if err := fsx.EnsureDir(d); err != nil {
			log.Error().Err(err).Str("path", d).Msg("创建输出目录失败")
			return withError(res, domain.StatusFailed, domain.ErrCodeIOFailed, err)
		}
	}

	rw := g.Rewriter
	if rw == nil {
		rw = rewrite.New("")
	}

	total := r.Len()
	for n := 0; n < total; n++ {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("done", n).Int("total", total).Msg("运行被取消")
			return withError(res, domain.StatusFailed, domain.ErrCodeCanceled, err)
		}

		itemStarted := time.Now()
		it := plan.Item(r.Start + n)
		ir, err := generateOne(plan, tmpl, it, rw)
		res.Items = append(res.Items, ir)
		if g.Observer != nil {
			g.Observer.OnItemDone(c, n+1, total, ir, time.Since(itemStarted))
		}
		if err != nil {
			log.Error().Err(err).Int("index", it.Index).Msg("生成失败，中止该集合剩余条目")
			return withError(res, domain.StatusFailed, domain.ErrCodeIOFailed, fmt.Errorf("index %d：%w", it.Index, err))
		}
		log.Debug().Int("index", it.Index).Str("image", it.ImagePath).Str("metadata", it.MetadataPath).Msg("已生成")
	}

	res.Status = domain.StatusProcessed
	log.Info().Int("written", total).Msg("集合处理完成")
	return res
}

// plan 是 dry-run 分支：只列出将要写出的文件。
func (g Generator) plan(res domain.CollectionResult, p domain.CollectionPlan) domain.CollectionResult {
	total := p.Range.Len()
	for n := 0; n < total; n++ {
		it := p.Item(p.Range.Start + n)
		ir := itemResult(it)
		ir.Status = domain.ItemStatusPlanned
		res.Items = append(res.Items, ir)
		if g.Observer != nil {
			g.Observer.OnItemDone(p.Collection, n+1, total, ir, 0)
		}
	}
	res.Status = domain.StatusPlanned
	return res
}

// generateOne 先复制图片，再写元数据；两者之间没有原子性保证。
func generateOne(p domain.CollectionPlan, tmpl *metadata.Document, it domain.ItemPlan, rw *rewrite.Rewriter) (domain.ItemResult, error) {
	ir := itemResult(it)
	ir.Status = domain.ItemStatusFailed

	if err := fsx.CopyFileAtomic(p.Layout.InputImage, p.Layout.OutputImages, it.ImageName); err != nil {
		return ir, fmt.Errorf("复制图片失败：%w", err)
	}
	ir.Files++

	doc := rw.Rewrite(tmpl, it.Index, p.Collection)
	b, err := metadata.Encode(doc)
	if err != nil {
		return ir, fmt.Errorf("编码元数据失败：%w", err)
	}
	if err := fsx.WriteFileAtomicReplace(p.Layout.OutputMetadata, it.MetadataName, b); err != nil {
		return ir, fmt.Errorf("写入元数据失败：%w", err)
	}
	ir.Files++

	ir.Status = domain.ItemStatusWritten
	return ir, nil
}

// itemResult 的路径相对集合目录，保持 report 简短且与机器无关。
func itemResult(it domain.ItemPlan) domain.ItemResult {
	return domain.ItemResult{
		Index:    it.Index,
		Image:    filepath.ToSlash(filepath.Join("output", "images", it.ImageName)),
		Metadata: filepath.ToSlash(filepath.Join("output", "metadata", it.MetadataName)),
	}
}

func withError(res domain.CollectionResult, status, code string, err error) domain.CollectionResult {
	res.Status = status
	res.ErrorCode = code
	res.ErrorMsg = err.Error()
	return res
}
