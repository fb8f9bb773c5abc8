package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/config"
	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/agents"
	"github.com/dyike/MomentumGo/internal/agents/analysts"
	"github.com/dyike/MomentumGo/internal/dataflows"
	"github.com/dyike/MomentumGo/internal/graph"
	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
	"github.com/dyike/MomentumGo/internal/tools"
)

// MomentumSession owns the model, tools and analyst node for one process.
type MomentumSession struct {
	config    *config.Config
	logger    *zap.Logger
	chatModel model.ToolCallingChatModel
	provider  dataflows.Provider
	tools     []tool.BaseTool
	node      analysts.MomentumNode
}

type SessionOption func(*MomentumSession)

// WithChatModel skips building a model from the config.
func WithChatModel(m model.ToolCallingChatModel) SessionOption {
	return func(s *MomentumSession) {
		s.chatModel = m
	}
}

// WithProvider skips building the dataflows client from the config.
func WithProvider(p dataflows.Provider) SessionOption {
	return func(s *MomentumSession) {
		s.provider = p
	}
}

func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *MomentumSession) {
		s.logger = logger
	}
}

func NewMomentumSession(ctx context.Context, cfg *config.Config, opts ...SessionOption) (*MomentumSession, error) {
	if cfg == nil {
		return nil, errors.New("trading session: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	s := &MomentumSession{config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)

	if s.chatModel == nil {
		m, err := agents.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		s.chatModel = m
	}

	if s.provider == nil {
		client, err := dataflows.NewClient(cfg, s.logger)
		switch {
		case errors.Is(err, dataflows.ErrNoDataflows):
			s.logger.Debug("dataflows url not set, tools will report unavailable")
			s.provider = dataflows.Unavailable{}
		case err != nil:
			return nil, fmt.Errorf("failed to create dataflows client: %w", err)
		default:
			s.provider = client
		}
	}

	s.tools = tools.MomentumTools(s.provider, s.logger)
	node, err := analysts.NewMomentumAnalyst(ctx, s.chatModel, s.tools, analysts.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create momentum analyst: %w", err)
	}
	s.node = node
	return s, nil
}

// Step runs the analyst exactly once on a fresh state. The returned state
// holds either the report or the tool calls the model asked for.
func (s *MomentumSession) Step(ctx context.Context, symbol, date string) (*models.TradingState, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	state := models.NewTradingState(symbol, date, models.MomentumPrompt(symbol, date))
	s.logger.Info("running momentum step", zap.String("ticker", state.CompanyOfInterest), zap.String("trade_date", date))

	update, err := s.node(ctx, state)
	if err != nil {
		return nil, err
	}
	state.Apply(update)
	state.Sender = consts.Agent_MomentumAnalyst
	state.Goto = analysts.NextNode(state.LastMessage())
	return state, nil
}

// Analyze runs the tool loop until the analyst writes its report. It needs a
// configured data service.
func (s *MomentumSession) Analyze(ctx context.Context, symbol, date string, opts ...compose.Option) (*models.TradingState, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if _, ok := s.provider.(dataflows.Unavailable); ok {
		return nil, dataflows.ErrNoDataflows
	}

	g, err := graph.NewMomentumGraph(ctx, s.node, s.tools,
		graph.WithMaxSteps(s.config.MaxRecurLimit),
		graph.WithGraphLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize momentum graph: %w", err)
	}

	started := time.Now()
	state, err := g.Propagate(ctx, symbol, date, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute momentum graph: %w", err)
	}
	s.logger.Info("momentum analysis finished",
		zap.String("ticker", state.CompanyOfInterest),
		zap.Int("messages", len(state.Messages)),
		zap.Duration("elapsed", time.Since(started)))
	return state, nil
}

func validateDate(date string) error {
	if _, err := time.Parse(consts.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date format %q, expected YYYY-MM-DD: %w", date, err)
	}
	return nil
}
