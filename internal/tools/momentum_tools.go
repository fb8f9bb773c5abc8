package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/dataflows"
	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
)

var ErrUnsupportedIndicator = errors.New("unsupported indicator")

// momentumIndicators are the only names get_indicators accepts. Case-sensitive.
var momentumIndicators = []string{
	"rsi",
	"macd",
	"macds",
	"macdh",
	"close_10_ema",
	"close_50_sma",
	"close_200_sma",
}

// indicatorParams contains descriptions for the supported technical indicators
var indicatorParams = map[string]string{
	"close_50_sma":  "50 SMA: A medium-term trend indicator. Usage: Identify trend direction and serve as dynamic support/resistance. Tips: It lags price; combine with faster indicators for timely signals.",
	"close_200_sma": "200 SMA: A long-term trend benchmark. Usage: Confirm overall market trend and identify golden/death cross setups. Tips: It reacts slowly; best for strategic trend confirmation rather than frequent trading entries.",
	"close_10_ema":  "10 EMA: A responsive short-term average. Usage: Capture quick shifts in momentum and potential entry points. Tips: Prone to noise in choppy markets; use alongside longer averages for filtering false signals.",
	"macd":          "MACD: Computes momentum via differences of EMAs. Usage: Look for crossovers and divergence as signals of trend changes. Tips: Confirm with other indicators in low-volatility or sideways markets.",
	"macds":         "MACD Signal: An EMA smoothing of the MACD line. Usage: Use crossovers with the MACD line to trigger trades. Tips: Should be part of a broader strategy to avoid false positives.",
	"macdh":         "MACD Histogram: Shows the gap between the MACD line and its signal. Usage: Visualize momentum strength and spot divergence early. Tips: Can be volatile; complement with additional filters in fast-moving markets.",
	"rsi":           "RSI: Measures momentum to flag overbought/oversold conditions. Usage: Apply 70/30 thresholds and watch for divergence to signal reversals. Tips: In strong trends, RSI may remain extreme; always cross-check with trend analysis.",
}

// SupportedIndicators returns the accepted indicator names in prompt order.
func SupportedIndicators() []string {
	return slices.Clone(momentumIndicators)
}

// MomentumTools returns get_stock_data and get_indicators, in that order.
func MomentumTools(provider dataflows.Provider, logger *zap.Logger) []tool.BaseTool {
	return []tool.BaseTool{
		NewStockDataTool(provider, logger),
		NewIndicatorTool(provider, logger),
	}
}

func NewStockDataTool(provider dataflows.Provider, logger *zap.Logger) tool.InvokableTool {
	logger = logging.OrNop(logger)
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: consts.Tool_GetStockData,
			Desc: "Retrieve stock price data (OHLCV) for a given ticker symbol between two dates. Returns a formatted table of daily prices.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     schema.String,
					Desc:     "Ticker symbol of the company, e.g. AAPL, TSM",
					Required: true,
				},
				"start_date": {
					Type:     schema.String,
					Desc:     "Start date in yyyy-mm-dd format",
					Required: true,
				},
				"end_date": {
					Type:     schema.String,
					Desc:     "End date in yyyy-mm-dd format",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input models.StockDataInput) (string, error) {
			if err := validateStockDataInput(input); err != nil {
				logger.Warn("tool input rejected", zap.String("tool", consts.Tool_GetStockData), zap.Error(err))
				return rejection(err), nil
			}

			logger.Debug("tool call",
				zap.String("tool", consts.Tool_GetStockData),
				zap.String("symbol", input.Symbol),
				zap.String("start_date", input.StartDate),
				zap.String("end_date", input.EndDate))
			return provider.GetStockData(ctx, input)
		},
	)
}

func NewIndicatorTool(provider dataflows.Provider, logger *zap.Logger) tool.InvokableTool {
	logger = logging.OrNop(logger)
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: consts.Tool_GetIndicators,
			Desc: "Retrieve a single technical indicator for a ticker over a look-back window ending at curr_date. Call get_stock_data first.\n" + describeIndicators(),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     schema.String,
					Desc:     "Ticker symbol of the company",
					Required: true,
				},
				"indicator": {
					Type:     schema.String,
					Desc:     "Technical indicator to get the analysis and report of. Exact lowercase name.",
					Enum:     SupportedIndicators(),
					Required: true,
				},
				"curr_date": {
					Type:     schema.String,
					Desc:     "The current trading date you are trading on, YYYY-mm-dd",
					Required: true,
				},
				"look_back_days": {
					Type:     schema.Integer,
					Desc:     "How many days to look back",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input models.IndicatorInput) (string, error) {
			if err := validateIndicatorInput(input); err != nil {
				logger.Warn("tool input rejected", zap.String("tool", consts.Tool_GetIndicators), zap.Error(err))
				return rejection(err), nil
			}

			logger.Debug("tool call",
				zap.String("tool", consts.Tool_GetIndicators),
				zap.String("symbol", input.Symbol),
				zap.String("indicator", input.Indicator),
				zap.Int("look_back_days", input.LookBackDays))
			return provider.GetIndicators(ctx, input)
		},
	)
}

// rejection is the tool result for bad arguments. The model reads it and
// can retry with corrected arguments.
func rejection(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

func validateStockDataInput(input models.StockDataInput) error {
	if err := dataflows.ValidateSymbol(input.Symbol); err != nil {
		return err
	}
	start, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", input.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", input.EndDate, input.StartDate)
	}
	return nil
}

func validateIndicatorInput(input models.IndicatorInput) error {
	if err := dataflows.ValidateSymbol(input.Symbol); err != nil {
		return err
	}
	if err := ValidateIndicator(input.Indicator); err != nil {
		return err
	}
	if _, err := parseDate("curr_date", input.CurrDate); err != nil {
		return err
	}
	if input.LookBackDays <= 0 {
		return fmt.Errorf("look_back_days must be positive, got %d", input.LookBackDays)
	}
	return nil
}

// ValidateIndicator rejects names outside the momentum set.
func ValidateIndicator(name string) error {
	if slices.Contains(momentumIndicators, name) {
		return nil
	}
	return fmt.Errorf("%w %q. Please choose from: %s",
		ErrUnsupportedIndicator, name, strings.Join(momentumIndicators, ", "))
}

func describeIndicators() string {
	var sb strings.Builder
	for _, name := range momentumIndicators {
		fmt.Fprintf(&sb, "- %s: %s\n", name, indicatorParams[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(consts.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, use YYYY-mm-dd", field, value)
	}
	return t, nil
}
