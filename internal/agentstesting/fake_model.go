// Package agentstesting provides scripted doubles for the chat model and the
// dataflows provider.
package agentstesting

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrNoScriptedOutput = errors.New("fake model: no scripted output left")

// FakeModel replays scripted responses in order and records every call.
type FakeModel struct {
	mu sync.Mutex

	outputs []*schema.Message
	errs    []error

	// WithToolsErr is returned from WithTools when set.
	WithToolsErr error

	boundTools []*schema.ToolInfo
	inputs     [][]*schema.Message
}

var _ model.ToolCallingChatModel = (*FakeModel)(nil)

func NewFakeModel(outputs ...*schema.Message) *FakeModel {
	return &FakeModel{outputs: outputs, errs: make([]error, len(outputs))}
}

// AddOutput queues another response.
func (m *FakeModel) AddOutput(msg *schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, msg)
	m.errs = append(m.errs, nil)
}

// AddError queues a failing turn.
func (m *FakeModel) AddError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, nil)
	m.errs = append(m.errs, err)
}

func (m *FakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs = append(m.inputs, input)
	if len(m.outputs) == 0 {
		return nil, ErrNoScriptedOutput
	}
	out, err := m.outputs[0], m.errs[0]
	m.outputs, m.errs = m.outputs[1:], m.errs[1:]
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *FakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *FakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if m.WithToolsErr != nil {
		return nil, m.WithToolsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boundTools = tools
	return m, nil
}

// BoundTools returns the tool infos passed to the last WithTools call.
func (m *FakeModel) BoundTools() []*schema.ToolInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boundTools
}

// Inputs returns the message lists of every Generate call so far.
func (m *FakeModel) Inputs() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.inputs))
	copy(out, m.inputs)
	return out
}

// LastInput returns the messages sent on the most recent call.
func (m *FakeModel) LastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[len(m.inputs)-1]
}

// ToolCallMessage builds an assistant message requesting one tool call.
func ToolCallMessage(id, name, arguments string) *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}})
}

// TextMessage builds a plain assistant answer.
func TextMessage(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}
