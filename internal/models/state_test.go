package models

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/MomentumGo/consts"
)

func TestNewTradingState(t *testing.T) {
	state := NewTradingState(" aapl ", "2024-01-15", "go")
	assert.Equal(t, "AAPL", state.CompanyOfInterest)
	assert.Equal(t, consts.MomentumAnalyst, state.Goto)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, schema.User, state.Messages[0].Role)

	assert.Empty(t, NewTradingState("AAPL", "2024-01-15", "").Messages)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewTradingState("AAPL", "2024-01-15", "").Validate())
	assert.ErrorIs(t, NewTradingState(" ", "2024-01-15", "").Validate(), ErrMissingTicker)
	assert.ErrorIs(t, NewTradingState("AAPL", "", "").Validate(), ErrMissingTradeDate)
}

func TestApplyAppendsAndReplacesReport(t *testing.T) {
	state := NewTradingState("AAPL", "2024-01-15", "go")
	state.MomentumReport = "old"

	state.Apply(&StateUpdate{Messages: []*schema.Message{schema.AssistantMessage("x", nil)}})
	assert.Len(t, state.Messages, 2)
	assert.Empty(t, state.MomentumReport)
	assert.Equal(t, "x", state.LastMessage().Content)

	state.Apply(nil)
	assert.Len(t, state.Messages, 2)
}

func TestCloneCopiesMessageSlice(t *testing.T) {
	state := NewTradingState("AAPL", "2024-01-15", "go")
	c := state.Clone()
	c.Messages = append(c.Messages, schema.AssistantMessage("more", nil))
	c.MomentumReport = "r"

	assert.Len(t, state.Messages, 1)
	assert.Empty(t, state.MomentumReport)
	assert.Nil(t, (&TradingState{}).LastMessage())
}

func TestMomentumPrompt(t *testing.T) {
	assert.Equal(t, "Analyze momentum and trend turning points for TSLA as of 2024-02-02",
		MomentumPrompt("tsla", "2024-02-02"))
}
