package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/nftrenum/internal/domain"
)

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestNewLayout(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "nft", "vnft-a")
	l := NewLayout(dir + string(filepath.Separator))

	assert.Equal(t, dir, l.Dir)
	assert.Equal(t, filepath.Join(dir, "input", "images", "1.png"), l.InputImage)
	assert.Equal(t, filepath.Join(dir, "input", "metadata", "1.json"), l.InputMetadata)
	assert.Equal(t, filepath.Join(dir, "output", "images"), l.OutputImages)
	assert.Equal(t, filepath.Join(dir, "output", "metadata"), l.OutputMetadata)
}

func TestPlanCollection_OK(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "input", "images", "1.png"))
	write(t, filepath.Join(dir, "input", "metadata", "1.json"))

	p, err := PlanCollection(domain.Mint, dir, domain.IndexRange{Start: 3, End: 5})
	require.NoError(t, err)
	assert.Equal(t, domain.Mint, p.Collection)
	assert.Equal(t, 3, p.Range.Len())
	assert.Equal(t, filepath.Join(dir, "output", "images", "4.png"), p.Item(4).ImagePath)

	// 规划阶段不得创建输出目录。
	_, err = os.Stat(filepath.Join(dir, "output"))
	assert.True(t, os.IsNotExist(err))
}

func TestPlanCollection_MissingImage(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "input", "metadata", "1.json"))

	_, err := PlanCollection(domain.Burn, dir, domain.IndexRange{Start: 0, End: 1})
	require.Error(t, err)
	assert.True(t, IsSourceMissing(err))

	var sm *SourceMissingError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "image", sm.Kind)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlanCollection_MissingMetadata(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "input", "images", "1.png"))

	_, err := PlanCollection(domain.Burn, dir, domain.IndexRange{})
	var sm *SourceMissingError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, "metadata", sm.Kind)
	assert.Contains(t, err.Error(), "元数据")
}

func TestPreflight_SourceIsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input", "images", "1.png"), 0o755))
	write(t, filepath.Join(dir, "input", "metadata", "1.json"))

	err := Preflight(NewLayout(dir))
	assert.True(t, IsSourceMissing(err), "err=%v", err)
}
