// Package dataflows is the boundary to the external data service that backs
// the analyst tools. Nothing here fetches quotes or computes indicators.
package dataflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyike/MomentumGo/internal/models"
)

var ErrNoDataflows = errors.New("dataflows url not configured")

// Provider executes the two momentum tools on behalf of the model.
type Provider interface {
	GetStockData(ctx context.Context, input models.StockDataInput) (string, error)
	GetIndicators(ctx context.Context, input models.IndicatorInput) (string, error)
}

// ValidateSymbol checks if a stock symbol is valid
func ValidateSymbol(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if len(symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}

// NormalizeSymbol converts symbol to standard format
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// Unavailable is the provider used when no data service is configured. The
// tools stay bound so the model still sees their descriptors.
type Unavailable struct{}

func (Unavailable) GetStockData(context.Context, models.StockDataInput) (string, error) {
	return "", ErrNoDataflows
}

func (Unavailable) GetIndicators(context.Context, models.IndicatorInput) (string, error) {
	return "", ErrNoDataflows
}
