package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/agents/analysts"
	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
)

const defaultMaxSteps = 40

// MomentumGraph runs the momentum analyst until it stops asking for tools.
type MomentumGraph struct {
	runnable compose.Runnable[*models.TradingState, *models.TradingState]
	logger   *zap.Logger
}

type graphOptions struct {
	maxSteps int
	logger   *zap.Logger
}

type GraphOption func(*graphOptions)

// WithMaxSteps bounds the number of node executions in one run.
func WithMaxSteps(n int) GraphOption {
	return func(o *graphOptions) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

func WithGraphLogger(logger *zap.Logger) GraphOption {
	return func(o *graphOptions) {
		o.logger = logger
	}
}

func NewMomentumGraph(ctx context.Context, node analysts.MomentumNode, tools []tool.BaseTool, opts ...GraphOption) (*MomentumGraph, error) {
	if node == nil {
		return nil, errors.New("momentum graph: nil analyst node")
	}
	o := &graphOptions{maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.OrNop(o.logger)

	g := compose.NewGraph[*models.TradingState, *models.TradingState](
		compose.WithGenLocalState(func(ctx context.Context) *models.TradingState {
			return &models.TradingState{}
		}),
	)

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{Tools: tools})
	if err != nil {
		return nil, fmt.Errorf("momentum graph: create tools node: %w", err)
	}

	_ = g.AddLambdaNode(consts.Load, compose.InvokableLambda(loadState), compose.WithNodeName(consts.Load))
	_ = g.AddLambdaNode(consts.MomentumAnalyst, compose.InvokableLambda(analystStep(node, logger)), compose.WithNodeName(consts.MomentumAnalyst))
	_ = g.AddToolsNode(consts.Tools, toolsNode, compose.WithNodeName(consts.Tools))
	_ = g.AddLambdaNode(consts.Finish, compose.InvokableLambda(finishState), compose.WithNodeName(consts.Finish))

	_ = g.AddEdge(compose.START, consts.Load)
	_ = g.AddEdge(consts.Load, consts.MomentumAnalyst)
	_ = g.AddBranch(consts.MomentumAnalyst, compose.NewGraphBranch(routeAnalyst, map[string]bool{
		consts.Tools:  true,
		consts.Finish: true,
	}))
	_ = g.AddEdge(consts.Tools, consts.MomentumAnalyst)
	_ = g.AddEdge(consts.Finish, compose.END)

	r, err := g.Compile(ctx,
		compose.WithGraphName("MomentumGo-MomentumAnalyst"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
		compose.WithMaxRunSteps(o.maxSteps),
	)
	if err != nil {
		return nil, fmt.Errorf("momentum graph: compile: %w", err)
	}
	return &MomentumGraph{runnable: r, logger: logger}, nil
}

// Invoke runs the graph on a copy of state and returns the final state.
func (g *MomentumGraph) Invoke(ctx context.Context, state *models.TradingState, opts ...compose.Option) (*models.TradingState, error) {
	if state == nil {
		return nil, errors.New("momentum graph: nil state")
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	result, err := g.runnable.Invoke(ctx, state, opts...)
	if err != nil {
		return nil, fmt.Errorf("momentum graph failed: %w", err)
	}
	return result, nil
}

// Propagate seeds a state for symbol on date and runs the graph.
func (g *MomentumGraph) Propagate(ctx context.Context, symbol, date string, opts ...compose.Option) (*models.TradingState, error) {
	state := models.NewTradingState(symbol, date, models.MomentumPrompt(symbol, date))
	g.logger.Info("propagating", zap.String("ticker", state.CompanyOfInterest), zap.String("trade_date", state.TradeDate))
	return g.Invoke(ctx, state, opts...)
}

func loadState(ctx context.Context, input *models.TradingState) ([]*schema.Message, error) {
	err := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
		*state = *input.Clone()
		state.Goto = consts.MomentumAnalyst
		return nil
	})
	// the history already lives in local state; nothing new to append
	return []*schema.Message{}, err
}

// analystStep appends incoming tool results, runs the node and applies its update.
func analystStep(node analysts.MomentumNode, logger *zap.Logger) func(context.Context, []*schema.Message) (*schema.Message, error) {
	return func(ctx context.Context, toolResults []*schema.Message) (*schema.Message, error) {
		var output *schema.Message
		err := compose.ProcessState[*models.TradingState](ctx, func(ctx context.Context, state *models.TradingState) error {
			state.Messages = append(state.Messages, toolResults...)

			update, err := node(ctx, state)
			if err != nil {
				return err
			}
			state.Apply(update)
			state.Sender = consts.Agent_MomentumAnalyst

			output = state.LastMessage()
			state.Goto = analysts.NextNode(output)
			logger.Debug("analyst step",
				zap.Int("tool_results", len(toolResults)),
				zap.String("goto", state.Goto))
			return nil
		})
		return output, err
	}
}

func routeAnalyst(_ context.Context, msg *schema.Message) (string, error) {
	if analysts.NextNode(msg) == consts.Tools {
		return consts.Tools, nil
	}
	return consts.Finish, nil
}

func finishState(ctx context.Context, _ *schema.Message) (*models.TradingState, error) {
	var output *models.TradingState
	err := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
		output = state.Clone()
		output.Goto = compose.END
		return nil
	})
	return output, err
}
