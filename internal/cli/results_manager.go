package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/display"
	"github.com/dyike/MomentumGo/pkg/utils"
)

const reportSuffix = "_momentum.md"

// ResultsManager reads the momentum reports saved with --save.
type ResultsManager struct {
	resultsDir string
}

type ResultSummary struct {
	Symbol    string    `json:"symbol"`
	Date      string    `json:"date"`
	Signal    string    `json:"signal"`
	CreatedAt time.Time `json:"created_at"`
	FilePath  string    `json:"file_path"`
	FileSize  int64     `json:"file_size"`
}

func NewResultsManager(resultsDir string) *ResultsManager {
	return &ResultsManager{resultsDir: resultsDir}
}

// ListResults lists saved reports sorted by sortBy ("symbol", "date" or "created").
func (rm *ResultsManager) ListResults(sortBy string, reverse bool) ([]ResultSummary, error) {
	var results []ResultSummary
	if _, err := os.Stat(rm.resultsDir); os.IsNotExist(err) {
		return results, nil
	}

	err := filepath.WalkDir(rm.resultsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), reportSuffix) {
			return nil
		}

		// SYMBOL_DATE_momentum.md
		parts := strings.Split(strings.TrimSuffix(d.Name(), reportSuffix), "_")
		if len(parts) < 2 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		signal := "UNKNOWN"
		if data, err := os.ReadFile(path); err == nil {
			signal = display.TrendSignal(string(data))
		}

		results = append(results, ResultSummary{
			Symbol:    strings.Join(parts[:len(parts)-1], "_"),
			Date:      parts[len(parts)-1],
			Signal:    signal,
			CreatedAt: info.ModTime(),
			FilePath:  path,
			FileSize:  info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan results directory: %w", err)
	}

	sortResults(results, sortBy, reverse)
	return results, nil
}

func sortResults(results []ResultSummary, sortBy string, reverse bool) {
	less := func(i, j int) bool {
		switch strings.ToLower(sortBy) {
		case "symbol":
			if results[i].Symbol != results[j].Symbol {
				return results[i].Symbol < results[j].Symbol
			}
			return results[i].Date < results[j].Date
		case "created":
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		default:
			if results[i].Date != results[j].Date {
				return results[i].Date < results[j].Date
			}
			return results[i].Symbol < results[j].Symbol
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if reverse {
			return less(j, i)
		}
		return less(i, j)
	})
}

// reportPath only accepts dates in consts.DateLayout so the name stays
// inside resultsDir.
func (rm *ResultsManager) reportPath(symbol, date string) (string, error) {
	if _, err := time.Parse(consts.DateLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return filepath.Join(rm.resultsDir, utils.ReportFileName(symbol, date)), nil
}

// ShowResult returns the saved report for symbol on date.
func (rm *ResultsManager) ShowResult(symbol, date string) (string, error) {
	path, err := rm.reportPath(symbol, date)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no saved report for %s on %s", strings.ToUpper(symbol), date)
		}
		return "", fmt.Errorf("failed to read result file: %w", err)
	}
	return string(data), nil
}

func (rm *ResultsManager) DeleteResult(symbol, date string) error {
	path, err := rm.reportPath(symbol, date)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no saved report for %s on %s", strings.ToUpper(symbol), date)
		}
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}
