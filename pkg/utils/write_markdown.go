package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteMarkdown writes content to dir/fileName, creating dir if needed, and
// returns the written path.
func WriteMarkdown(dir, fileName, content string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return path, nil
}

// ReportFileName names the saved momentum report, e.g. AAPL_2024-01-15_momentum.md.
func ReportFileName(symbol, date string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	symbol = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(symbol)
	return fmt.Sprintf("%s_%s_momentum.md", symbol, strings.TrimSpace(date))
}

// ReportMarkdown wraps a momentum report with a title line.
func ReportMarkdown(symbol, date, report string) string {
	return fmt.Sprintf("# Momentum Report: %s (%s)\n\n%s\n", strings.ToUpper(symbol), date, strings.TrimSpace(report))
}
