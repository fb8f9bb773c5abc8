package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMarkdownCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results", "nested")
	path, err := WriteMarkdown(dir, "report.md", "# hi\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(data))
}

func TestWriteMarkdownFailsOnFileAsDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := WriteMarkdown(filepath.Join(blocker, "sub"), "r.md", "x")
	require.Error(t, err)
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "AAPL_2024-01-15_momentum.md", ReportFileName(" aapl ", "2024-01-15"))
	assert.Equal(t, "BRK_B_2024-01-15_momentum.md", ReportFileName("brk/b", "2024-01-15"))
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown("tsla", "2024-02-02", "\n| a | b |\n")
	assert.Equal(t, "# Momentum Report: TSLA (2024-02-02)\n\n| a | b |\n", md)
}
