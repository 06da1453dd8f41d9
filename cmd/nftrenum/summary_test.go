package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/John-Robertt/nftrenum/internal/domain"
)

func TestRenderSummaryTable(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rr := domain.RunReport{
		StartedAt:  started,
		FinishedAt: started.Add(65 * time.Second),
		Collections: []domain.CollectionResult{
			{
				Collection: "burn",
				Status:     domain.StatusProcessed,
				Items: []domain.ItemResult{
					{Index: 0, Files: 2},
					{Index: 1, Files: 2},
				},
			},
			{
				Collection: "mint",
				Status:     domain.StatusSkipped,
				ErrorCode:  domain.ErrCodeSourceMissing,
				ErrorMsg:   "模板图片不存在",
			},
		},
	}

	out := renderSummaryTable(rr)
	assert.Contains(t, out, "COLLECTION")
	assert.Contains(t, out, "burn")
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "source_missing: 模板图片不存在")
	assert.Contains(t, out, "elapsed: 00:01:05")
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Equal(t, "", renderTable(nil, nil, nil))
}
