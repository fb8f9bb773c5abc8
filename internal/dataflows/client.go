package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/config"
	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
)

const (
	stockDataPath  = "/stock_data"
	indicatorsPath = "/indicators"
)

// Client forwards tool calls to the data service over HTTP.
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

type dataflowResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// NewClient creates a client for cfg.DataflowsURL.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.DataflowsURL) == "" {
		return nil, ErrNoDataflows
	}

	timeout := 30 * time.Second
	if cfg.DataflowsTimeoutSec > 0 {
		timeout = time.Duration(cfg.DataflowsTimeoutSec) * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.DataflowsURL, "/"))
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "MomentumGo/1.0")

	return &Client{
		client: client,
		logger: logging.OrNop(logger),
	}, nil
}

func (c *Client) GetStockData(ctx context.Context, input models.StockDataInput) (string, error) {
	input.Symbol = NormalizeSymbol(input.Symbol)
	return c.post(ctx, stockDataPath, input)
}

func (c *Client) GetIndicators(ctx context.Context, input models.IndicatorInput) (string, error) {
	input.Symbol = NormalizeSymbol(input.Symbol)
	return c.post(ctx, indicatorsPath, input)
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("dataflows %s: %w", path, err)
	}

	c.logger.Debug("dataflows call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)))

	var out dataflowResponse
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &out); err != nil && resp.StatusCode() == http.StatusOK {
			return "", fmt.Errorf("dataflows %s: failed to parse response: %w", path, err)
		}
	}

	if resp.StatusCode() != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", fmt.Errorf("dataflows %s: API error %d: %s", path, resp.StatusCode(), msg)
	}
	if out.Error != "" {
		return "", fmt.Errorf("dataflows %s: %s", path, out.Error)
	}
	return out.Result, nil
}
