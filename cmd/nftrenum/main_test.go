package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/nftrenum/internal/config"
	"github.com/John-Robertt/nftrenum/internal/domain"
)

const templateJSON = `{"name":"nft-burn#1","image":"https://0xmavillain.com/data/nft/burn/images/1.png","edition":1}`

func seed(t *testing.T, dir string) {
	t.Helper()
	for name, b := range map[string][]byte{
		filepath.Join(dir, "input", "images", "1.png"):    []byte("\x89PNG\r\n\x1a\nfake"),
		filepath.Join(dir, "input", "metadata", "1.json"): []byte(templateJSON),
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, os.WriteFile(name, b, 0o644))
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	base := t.TempDir()
	seed(t, filepath.Join(base, "vnft-a"))
	seed(t, filepath.Join(base, "vnft-b"))

	code, stdout, stderr := runCLI(t, "--base_path", base, "--start", "0", "--end", "2")
	require.Equal(t, 0, code, "stderr=%s", stderr)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rr), "stdout=%q", stdout)
	assert.Equal(t, base, rr.BasePath)
	assert.Equal(t, 2, rr.Summary.Processed)
	assert.Equal(t, 12, rr.Summary.Files)
	assert.NotContains(t, stdout, "配置（生效）")
	assert.Contains(t, stderr, "完成：processed=2")

	assert.FileExists(t, filepath.Join(base, "vnft-a", "output", "metadata", "2.json"))
	assert.FileExists(t, filepath.Join(base, "vnft-b", "output", "images", "0.png"))
}

func TestCLI_PartialRunStillExitsZero(t *testing.T) {
	base := t.TempDir()
	seed(t, filepath.Join(base, "vnft-b"))

	code, stdout, _ := runCLI(t, "--base_path", base, "--end", "1")
	require.Equal(t, 0, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rr))
	require.Len(t, rr.Collections, 2)
	assert.Equal(t, domain.StatusSkipped, rr.Collections[0].Status)
	assert.Equal(t, domain.ErrCodeSourceMissing, rr.Collections[0].ErrorCode)
	assert.Equal(t, domain.StatusProcessed, rr.Collections[1].Status)
}

func TestCLI_DryRunWritesNothing(t *testing.T) {
	base := t.TempDir()
	seed(t, filepath.Join(base, "vnft-a"))

	code, stdout, _ := runCLI(t, "--base_path", base, "--only", "burn", "--dry-run", "--end", "3")
	require.Equal(t, 0, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rr))
	assert.True(t, rr.DryRun)
	require.Len(t, rr.Collections, 1)
	assert.Equal(t, domain.StatusPlanned, rr.Collections[0].Status)
	assert.Len(t, rr.Collections[0].Items, 4)
	assert.NoDirExists(t, filepath.Join(base, "vnft-a", "output"))
}

func TestCLI_ExplicitFlagOverridesConfigFile(t *testing.T) {
	base := t.TempDir()
	seed(t, filepath.Join(base, "vnft-a"))
	require.NoError(t, os.WriteFile(filepath.Join(base, config.FileName), []byte("dry_run = true\nonly = \"burn\"\nend = 0\n"), 0o644))

	code, stdout, _ := runCLI(t, "--base_path", base, "--dry-run=false")
	require.Equal(t, 0, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rr))
	assert.False(t, rr.DryRun)
	assert.Equal(t, 0, rr.End)
	require.Len(t, rr.Collections, 1)
	assert.Equal(t, domain.StatusProcessed, rr.Collections[0].Status)
	assert.FileExists(t, filepath.Join(base, "vnft-a", "output", "images", "0.png"))
}

func TestCLI_ConfigErrorExitsOne(t *testing.T) {
	base := t.TempDir()

	code, stdout, stderr := runCLI(t, "--base_path", base, "--only", "both")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, config.ErrCodeInvalid)

	code, _, stderr = runCLI(t, "--config", filepath.Join(base, "missing.toml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, config.ErrCodeNotFound)
}

func TestCLI_ArgumentErrorsExitOne(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown flag": {"--bogus"},
		"bad int":      {"--start", "abc"},
		"positional":   {"extra"},
	} {
		t.Run(name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "错误：")
		})
	}
}

func TestCLI_FlagDefaults(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	flags := cmd.Flags()

	for name, want := range map[string]string{
		"start":     "0",
		"end":       "1000",
		"base_path": "C:/villain-burn-nft",
		"only":      "",
		"dry-run":   "false",
		"log-level": "info",
	} {
		f := flags.Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}
}
