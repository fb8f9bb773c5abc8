package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/dyike/MomentumGo/consts"
)

var (
	ErrMissingTicker    = errors.New("company_of_interest is required")
	ErrMissingTradeDate = errors.New("trade_date is required")
)

// TradingState is the state threaded between pipeline stages.
// Messages is append-only; use Apply to merge a node's update.
type TradingState struct {
	Messages          []*schema.Message `json:"messages"`
	CompanyOfInterest string            `json:"company_of_interest"`
	TradeDate         string            `json:"trade_date"`
	Sender            string            `json:"sender,omitempty"`

	MomentumReport string `json:"momentum_report"`
	Goto           string `json:"goto"`
}

// StateUpdate is what a node returns: only the new messages, never the full history.
type StateUpdate struct {
	Messages       []*schema.Message `json:"messages"`
	MomentumReport string            `json:"momentum_report"`
}

func NewTradingState(symbol, date, userPrompt string) *TradingState {
	state := &TradingState{
		Messages:          []*schema.Message{},
		CompanyOfInterest: strings.ToUpper(strings.TrimSpace(symbol)),
		TradeDate:         strings.TrimSpace(date),
		Goto:              consts.MomentumAnalyst,
	}
	if userPrompt != "" {
		state.Messages = append(state.Messages, schema.UserMessage(userPrompt))
	}
	return state
}

func (s *TradingState) Validate() error {
	if strings.TrimSpace(s.CompanyOfInterest) == "" {
		return ErrMissingTicker
	}
	if strings.TrimSpace(s.TradeDate) == "" {
		return ErrMissingTradeDate
	}
	return nil
}

// Apply appends the update's messages and replaces the momentum report.
func (s *TradingState) Apply(update *StateUpdate) {
	if update == nil {
		return
	}
	s.Messages = append(s.Messages, update.Messages...)
	s.MomentumReport = update.MomentumReport
}

// LastMessage returns the newest message, or nil for an empty history.
func (s *TradingState) LastMessage() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// Clone copies the state; the message slice is copied, messages are shared.
func (s *TradingState) Clone() *TradingState {
	c := *s
	c.Messages = make([]*schema.Message, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}

// MomentumPrompt is the user message that seeds a fresh analysis.
func MomentumPrompt(symbol, date string) string {
	return fmt.Sprintf("Analyze momentum and trend turning points for %s as of %s", strings.ToUpper(strings.TrimSpace(symbol)), date)
}
