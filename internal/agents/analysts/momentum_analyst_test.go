package analysts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/MomentumGo/consts"
	"github.com/dyike/MomentumGo/internal/agentstesting"
	"github.com/dyike/MomentumGo/internal/models"
	"github.com/dyike/MomentumGo/internal/tools"
)

func baseState() *models.TradingState {
	return &models.TradingState{
		Messages:          []*schema.Message{},
		TradeDate:         "2023-10-27",
		CompanyOfInterest: "AAPL",
		Sender:            "supervisor",
	}
}

func momentumTools() []tool.BaseTool {
	return tools.MomentumTools(&agentstesting.FakeProvider{}, nil)
}

func runNode(t *testing.T, fake *agentstesting.FakeModel, state *models.TradingState, opts ...Option) *models.StateUpdate {
	t.Helper()
	node, err := NewMomentumAnalyst(context.Background(), fake, momentumTools(), opts...)
	require.NoError(t, err)
	update, err := node(context.Background(), state)
	require.NoError(t, err)
	require.NotNil(t, update)
	return update
}

func TestMomentumSignalGeneration(t *testing.T) {
	fake := agentstesting.NewFakeModel(agentstesting.TextMessage("Momentum is bullish and upward"))
	update := runNode(t, fake, baseState())

	require.Len(t, update.Messages, 1)
	last := strings.ToLower(update.Messages[len(update.Messages)-1].Content)
	assert.Contains(t, last, "momentum")
	assert.Equal(t, "Momentum is bullish and upward", update.MomentumReport)
}

func TestReportKeywordsFollowModelOutput(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		keywords []string
	}{
		{name: "bearish", content: "The momentum is bearish and downward", keywords: []string{"bearish", "downward", "negative", "decrease"}},
		{name: "flat", content: "The momentum is neutral, flat and sideways", keywords: []string{"neutral", "flat", "sideways", "no clear"}},
		{name: "bullish", content: "The momentum is bullish, positive and upward", keywords: []string{"bullish", "upward", "positive", "buy", "increase"}},
		{name: "no data", content: "No data or insufficient data error", keywords: []string{"error", "insufficient", "no data", "empty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := agentstesting.NewFakeModel(agentstesting.TextMessage(tt.content))
			update := runNode(t, fake, baseState())
			last := strings.ToLower(update.Messages[len(update.Messages)-1].Content)
			found := false
			for _, kw := range tt.keywords {
				if strings.Contains(last, kw) {
					found = true
					break
				}
			}
			assert.True(t, found, "expected one of %v in %q", tt.keywords, last)
		})
	}
}

func TestToolCallLeavesReportEmpty(t *testing.T) {
	call := agentstesting.ToolCallMessage("call_1", consts.Tool_GetStockData,
		`{"symbol":"AAPL","start_date":"2022-10-27","end_date":"2023-10-27"}`)
	call.Content = "Fetching price history first."
	fake := agentstesting.NewFakeModel(call)

	update := runNode(t, fake, baseState())
	require.Len(t, update.Messages, 1)
	assert.Same(t, call, update.Messages[0])
	assert.Empty(t, update.MomentumReport)
	assert.Equal(t, consts.Tools, NextNode(update.Messages[0]))
}

func TestPromptCarriesTickerDateAndTools(t *testing.T) {
	history := []*schema.Message{
		schema.UserMessage("Analyze momentum for AAPL"),
		schema.AssistantMessage("Sure.", nil),
	}
	state := baseState()
	state.Messages = history

	fake := agentstesting.NewFakeModel(agentstesting.TextMessage("momentum report"))
	runNode(t, fake, state)

	input := fake.LastInput()
	require.Len(t, input, 3)
	system := input[0]
	assert.Equal(t, schema.System, system.Role)
	assert.True(t, strings.HasPrefix(system.Content, "You are a helpful AI assistant collaborating with other analysts."))
	assert.Contains(t, system.Content, "Current date: 2023-10-27\nTicker: AAPL\nAvailable tools: get_stock_data, get_indicators")
	assert.Contains(t, system.Content, "You are a professional quantitative Momentum Analyst")
	assert.Contains(t, system.Content, "You MUST call get_stock_data first before calling get_indicators.")
	assert.NotContains(t, system.Content, "{ticker}")

	assert.Same(t, history[0], input[1])
	assert.Same(t, history[1], input[2])
}

func TestToolsAreBoundOnce(t *testing.T) {
	fake := agentstesting.NewFakeModel(
		agentstesting.TextMessage("momentum one"),
		agentstesting.TextMessage("momentum two"),
	)
	node, err := NewMomentumAnalyst(context.Background(), fake, momentumTools())
	require.NoError(t, err)

	bound := fake.BoundTools()
	require.Len(t, bound, 2)
	assert.Equal(t, consts.Tool_GetStockData, bound[0].Name)
	assert.Equal(t, consts.Tool_GetIndicators, bound[1].Name)

	for i := 0; i < 2; i++ {
		_, err := node(context.Background(), baseState())
		require.NoError(t, err)
	}
	assert.Len(t, fake.Inputs(), 2)
}

func TestNodeDoesNotMutateState(t *testing.T) {
	state := baseState()
	state.Messages = []*schema.Message{schema.UserMessage("go")}
	fake := agentstesting.NewFakeModel(agentstesting.TextMessage("momentum is strong"))

	update := runNode(t, fake, state)
	assert.Len(t, state.Messages, 1)
	assert.Empty(t, state.MomentumReport)

	state.Apply(update)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "go", state.Messages[0].Content)
	assert.Equal(t, "momentum is strong", state.MomentumReport)
}

func TestSenderIsOptional(t *testing.T) {
	state := baseState()
	state.Sender = ""
	fake := agentstesting.NewFakeModel(agentstesting.TextMessage("momentum neutral"))
	update := runNode(t, fake, state)
	assert.NotEmpty(t, update.Messages)
}

func TestWithSystemMessage(t *testing.T) {
	fake := agentstesting.NewFakeModel(agentstesting.TextMessage("ok"))
	runNode(t, fake, baseState(), WithSystemMessage("Only look at RSI."))

	system := fake.LastInput()[0].Content
	assert.Contains(t, system, "Only look at RSI.")
	assert.NotContains(t, system, "quantitative Momentum Analyst")
}

func TestMissingTickerOrDate(t *testing.T) {
	node, err := NewMomentumAnalyst(context.Background(), agentstesting.NewFakeModel(), momentumTools())
	require.NoError(t, err)

	state := baseState()
	state.CompanyOfInterest = ""
	_, err = node(context.Background(), state)
	require.ErrorIs(t, err, models.ErrMissingTicker)

	state = baseState()
	state.TradeDate = " "
	_, err = node(context.Background(), state)
	require.ErrorIs(t, err, models.ErrMissingTradeDate)

	_, err = node(context.Background(), nil)
	require.Error(t, err)
}

func TestModelErrorPropagates(t *testing.T) {
	boom := errors.New("rate limited")
	fake := agentstesting.NewFakeModel()
	fake.AddError(boom)

	node, err := NewMomentumAnalyst(context.Background(), fake, momentumTools())
	require.NoError(t, err)
	_, err = node(context.Background(), baseState())
	require.ErrorIs(t, err, boom)
}

func TestConstructionErrors(t *testing.T) {
	_, err := NewMomentumAnalyst(context.Background(), nil, momentumTools())
	require.Error(t, err)

	fake := agentstesting.NewFakeModel()
	fake.WithToolsErr = errors.New("tools unsupported")
	_, err = NewMomentumAnalyst(context.Background(), fake, momentumTools())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tools unsupported")
}

func TestNextNode(t *testing.T) {
	assert.Equal(t, compose.END, NextNode(nil))
	assert.Equal(t, compose.END, NextNode(agentstesting.TextMessage("done")))
	assert.Equal(t, consts.Tools, NextNode(agentstesting.ToolCallMessage("1", consts.Tool_GetIndicators, "{}")))
}
