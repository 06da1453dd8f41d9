package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/nftrenum/internal/app/run"
	"github.com/John-Robertt/nftrenum/internal/config"
	"github.com/John-Robertt/nftrenum/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出，只写 stderr，不影响 stdout 的 JSON 契约。
type progressUI struct {
	w io.Writer

	mu        sync.Mutex
	startedAt time.Time
	now       func() time.Time

	// 当前集合的计数。
	written int
	planned int
	failed  int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w, now: time.Now}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.startedAt = now

	mode := "write"
	if eff.DryRun {
		mode = "dry-run (不写入任何文件)"
	}
	labels := make([]string, 0, len(eff.Collections))
	for _, c := range eff.Collections {
		labels = append(labels, c.Label())
	}

	fmt.Fprintf(p.w, "[%s] nftrenum (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  base_path: %s\n", eff.BasePath)
	fmt.Fprintf(p.w, "  range: %d..%d\n", eff.Start, eff.End)
	fmt.Fprintf(p.w, "  collections: %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(p.w, "  image_base_url: %s\n", truncate(eff.ImageBaseURL, 120))
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnCollectionStart(c domain.Collection, dir string, r domain.IndexRange) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.written, p.planned, p.failed = 0, 0, 0
	fmt.Fprintf(p.w, "%s: %s items=%d\n", c.Label(), dir, r.Len())
}

func (p *progressUI) OnItemDone(c domain.Collection, idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := strings.ToUpper(res.Status)
	switch res.Status {
	case domain.ItemStatusWritten:
		p.written++
		status = "OK"
	case domain.ItemStatusPlanned:
		p.planned++
		status = "PLAN"
	case domain.ItemStatusFailed:
		p.failed++
		status = "FAIL"
	}

	fmt.Fprintf(p.w, "[%d/%d] %s #%d %s %s (%s)\n",
		idx, total, c.Label(), res.Index, status, res.Metadata, formatShortDuration(dur),
	)
}

func (p *progressUI) OnCollectionDone(res domain.CollectionResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch res.Status {
	case domain.StatusSkipped, domain.StatusFailed:
		fmt.Fprintf(p.w, "%s %s %s: %s written=%d (%s)\n\n",
			res.Collection, strings.ToUpper(res.Status), res.ErrorCode, truncate(res.ErrorMsg, 160), p.written, formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s %s written=%d planned=%d (%s)\n\n",
			res.Collection, strings.ToUpper(res.Status), p.written, p.planned, formatShortDuration(dur),
		)
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
