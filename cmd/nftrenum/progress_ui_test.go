package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/nftrenum/internal/config"
	"github.com/John-Robertt/nftrenum/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	p.OnStart(config.EffectiveConfig{
		BasePath:     "/nft",
		Start:        3,
		End:          4,
		Collections:  []domain.Collection{domain.Burn, domain.Mint},
		ImageBaseURL: "https://0xmavillain.com/data/nft",
	})
	p.OnCollectionStart(domain.Burn, "/nft/vnft-a", domain.IndexRange{Start: 3, End: 4})
	p.OnItemDone(domain.Burn, 1, 2, domain.ItemResult{Index: 3, Metadata: "output/metadata/3.json", Status: domain.ItemStatusWritten}, 10*time.Millisecond)
	p.OnItemDone(domain.Burn, 2, 2, domain.ItemResult{Index: 4, Metadata: "output/metadata/4.json", Status: domain.ItemStatusWritten}, 10*time.Millisecond)
	p.OnCollectionDone(domain.CollectionResult{Collection: "burn", Status: domain.StatusProcessed}, time.Second)

	p.OnCollectionStart(domain.Mint, "/nft/vnft-b", domain.IndexRange{Start: 3, End: 4})
	p.OnCollectionDone(domain.CollectionResult{
		Collection: "mint",
		Status:     domain.StatusSkipped,
		ErrorCode:  domain.ErrCodeSourceMissing,
		ErrorMsg:   "模板图片不存在",
	}, 0)

	out := buf.String()
	assert.Contains(t, out, "[03:04:05] nftrenum (write)")
	assert.Contains(t, out, "range: 3..4")
	assert.Contains(t, out, "collections: burn, mint")
	assert.Contains(t, out, "burn: /nft/vnft-a items=2")
	assert.Contains(t, out, "[2/2] burn #4 OK output/metadata/4.json (0.0s)")
	assert.Contains(t, out, "burn PROCESSED written=2 planned=0 (1.0s)")
	assert.Contains(t, out, "mint SKIPPED source_missing: 模板图片不存在 written=0")
}

func TestProgressUI_DryRunMode(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{DryRun: true, Collections: []domain.Collection{domain.Mint}})
	p.OnCollectionStart(domain.Mint, "/x/vnft-b", domain.IndexRange{Start: 0, End: 0})
	p.OnItemDone(domain.Mint, 1, 1, domain.ItemResult{Index: 0, Metadata: "output/metadata/0.json", Status: domain.ItemStatusPlanned}, 0)
	p.OnCollectionDone(domain.CollectionResult{Collection: "mint", Status: domain.StatusPlanned}, 0)

	out := buf.String()
	assert.Contains(t, out, "nftrenum (dry-run")
	assert.Contains(t, out, "#0 PLAN")
	assert.Contains(t, out, "mint PLANNED written=0 planned=1")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("  abc ", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "01:01:01", formatElapsed(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "00:00:00", formatElapsed(-time.Second))
}
