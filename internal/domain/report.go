package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
	StatusPlanned   = "planned"
)

const (
	ItemStatusWritten = "written"
	ItemStatusPlanned = "planned"
	ItemStatusFailed  = "failed"
)

const (
	ErrCodeSourceMissing   = "source_missing"
	ErrCodeMetadataInvalid = "metadata_invalid"
	ErrCodeIOFailed        = "io_failed"
	ErrCodeLocked          = "locked"
	ErrCodeCanceled        = "canceled"
	ErrCodeRangeInvalid    = "range_invalid"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
type RunReport struct {
	RunID    string `json:"run_id"`
	BasePath string `json:"base_path"`
	DryRun   bool   `json:"dry_run"`
	Start    int    `json:"start"`
	End      int    `json:"end"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary     ReportSummary      `json:"summary"`
	Collections []CollectionResult `json:"collections"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Planned   int `json:"planned"`

	// Files 是实际写出的文件数（每个 index 最多 2 个：png + json）。
	Files int `json:"files"`
}

type CollectionResult struct {
	Collection string `json:"collection"`
	Dir        string `json:"dir"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Items []ItemResult `json:"items"`
}

type ItemResult struct {
	Index    int    `json:"index"`
	Image    string `json:"image"`
	Metadata string `json:"metadata"`
	Status   string `json:"status"`

	// Files 记录该 index 已落盘的文件数；失败时可能只写出了 png。
	Files int `json:"-"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) collections 按固定顺序排序（burn 在前，mint 在后，未知标签排最后）
// 3) summary 由 collections 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Collections, func(i, j int) bool {
		return collectionRank(r.Collections[i].Collection) < collectionRank(r.Collections[j].Collection)
	})

	var s ReportSummary
	for _, c := range r.Collections {
		switch c.Status {
		case StatusProcessed:
			s.Processed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		case StatusPlanned:
			s.Planned++
		}
		for _, it := range c.Items {
			s.Files += it.Files
		}
	}
	r.Summary = s
}

func collectionRank(label string) int {
	if c, ok := ParseCollection(label); ok {
		return int(c)
	}
	return len(Collections) + 1
}

// MarshalJSON 保证 collections/items 永远输出为数组而不是 null。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	a := Alias(r)
	// 复制一份，避免修改调用方持有的底层数组。
	a.Collections = append([]CollectionResult{}, r.Collections...)
	for i := range a.Collections {
		if a.Collections[i].Items == nil {
			a.Collections[i].Items = []ItemResult{}
		}
	}
	return json.Marshal(a)
}
