package analysts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
	"github.com/dyike/MomentumGo/internal/utils"
)

const momentumSystemTpl = `You are a helpful AI assistant collaborating with other analysts. Use the provided tools correctly.

{system_message}

Current date: {current_date}
Ticker: {ticker}
Available tools: {tool_names}`

// MomentumNode runs one analyst turn. It never mutates the state it is given.
type MomentumNode func(ctx context.Context, state *models.TradingState) (*models.StateUpdate, error)

type options struct {
	systemMessage string
	logger        *zap.Logger
}

type Option func(*options)

// WithSystemMessage replaces the momentum instruction block.
func WithSystemMessage(msg string) Option {
	return func(o *options) {
		o.systemMessage = msg
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewMomentumAnalyst binds tools to chatModel once and returns the node function.
func NewMomentumAnalyst(ctx context.Context, chatModel model.ToolCallingChatModel, tools []tool.BaseTool, opts ...Option) (MomentumNode, error) {
	if chatModel == nil {
		return nil, errors.New("momentum analyst: chat model is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.OrNop(o.logger).With(zap.String("agent", consts.Agent_MomentumAnalyst))

	systemMessage := strings.TrimSpace(o.systemMessage)
	if systemMessage == "" {
		var err error
		systemMessage, err = utils.LoadPrompt("analysts/momentum_analyst")
		if err != nil {
			return nil, err
		}
	}

	toolInfos := make([]*schema.ToolInfo, 0, len(tools))
	toolNames := make([]string, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("momentum analyst: read tool info: %w", err)
		}
		toolInfos = append(toolInfos, info)
		toolNames = append(toolNames, info.Name)
	}

	boundModel := chatModel
	if len(toolInfos) > 0 {
		var err error
		boundModel, err = chatModel.WithTools(toolInfos)
		if err != nil {
			return nil, fmt.Errorf("momentum analyst: bind tools: %w", err)
		}
	}

	promptTemp := prompt.FromMessages(schema.FString,
		schema.SystemMessage(momentumSystemTpl),
		schema.MessagesPlaceholder("messages", true),
	)
	joinedNames := strings.Join(toolNames, ", ")

	return func(ctx context.Context, state *models.TradingState) (*models.StateUpdate, error) {
		if state == nil {
			return nil, errors.New("momentum analyst: nil state")
		}
		if err := state.Validate(); err != nil {
			return nil, fmt.Errorf("momentum analyst: %w", err)
		}

		input, err := promptTemp.Format(ctx, map[string]any{
			"system_message": systemMessage,
			"tool_names":     joinedNames,
			"current_date":   state.TradeDate,
			"ticker":         state.CompanyOfInterest,
			"messages":       state.Messages,
		})
		if err != nil {
			return nil, fmt.Errorf("momentum analyst: format prompt: %w", err)
		}

		logger.Debug("invoking model",
			zap.String("ticker", state.CompanyOfInterest),
			zap.String("trade_date", state.TradeDate),
			zap.Int("history", len(state.Messages)))

		result, err := boundModel.Generate(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("momentum analyst: generate: %w", err)
		}
		if result == nil {
			return nil, errors.New("momentum analyst: model returned no message")
		}

		report := ""
		if len(result.ToolCalls) == 0 {
			report = result.Content
		} else {
			logger.Debug("model requested tools", zap.Strings("tools", toolCallNames(result)))
		}

		return &models.StateUpdate{
			Messages:       []*schema.Message{result},
			MomentumReport: report,
		}, nil
	}, nil
}

// NextNode routes a model response: to the tools node when it asks for tool
// calls, otherwise to the end of the graph.
func NextNode(msg *schema.Message) string {
	if msg != nil && len(msg.ToolCalls) > 0 {
		return consts.Tools
	}
	return compose.END
}

func toolCallNames(msg *schema.Message) []string {
	names := make([]string, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		names = append(names, tc.Function.Name)
	}
	return names
}
