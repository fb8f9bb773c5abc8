package agentstesting

import (
	"context"
	"sync"

	"github.com/dyike/MomentumGo/internal/models"
)

// FakeProvider answers tool calls with fixed payloads.
type FakeProvider struct {
	mu sync.Mutex

	StockData      string
	Indicators     map[string]string
	Err            error
	StockCalls     []models.StockDataInput
	IndicatorCalls []models.IndicatorInput
}

func (p *FakeProvider) GetStockData(_ context.Context, input models.StockDataInput) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StockCalls = append(p.StockCalls, input)
	if p.Err != nil {
		return "", p.Err
	}
	return p.StockData, nil
}

func (p *FakeProvider) GetIndicators(_ context.Context, input models.IndicatorInput) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IndicatorCalls = append(p.IndicatorCalls, input)
	if p.Err != nil {
		return "", p.Err
	}
	return p.Indicators[input.Indicator], nil
}
