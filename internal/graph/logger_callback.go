package graph

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/callbacks"
	ecmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dyike/MomentumGo/internal/logging"
	"github.com/dyike/MomentumGo/internal/models"
)

// LoggerCallback logs graph activity and, when Out is set, forwards every
// message it sees as a ChatResp event.
type LoggerCallback struct {
	RunID  string
	Out    chan<- *models.ChatResp
	logger *zap.Logger
}

var _ callbacks.Handler = (*LoggerCallback)(nil)

func NewLoggerCallback(logger *zap.Logger, out chan<- *models.ChatResp) *LoggerCallback {
	runID := uuid.NewString()
	return &LoggerCallback{
		RunID:  runID,
		Out:    out,
		logger: logging.OrNop(logger).With(zap.String("run_id", runID)),
	}
}

func (cb *LoggerCallback) push(ctx context.Context, data *models.ChatResp) {
	if cb.Out == nil {
		return
	}
	data.RunID = cb.RunID
	select {
	case cb.Out <- data:
	case <-ctx.Done():
	}
}

func (cb *LoggerCallback) pushMsg(ctx context.Context, agent, msgID string, msg *schema.Message) {
	if msg == nil {
		return
	}

	data := &models.ChatResp{
		Agent:   agent,
		ID:      msgID,
		Role:    string(msg.Role),
		Content: msg.Content,
	}
	if msg.ResponseMeta != nil {
		data.FinishReason = msg.ResponseMeta.FinishReason
	}

	switch {
	case msg.Role == schema.Tool:
		data.Event = "tool_call_result"
		data.ToolCallID = msg.ToolCallID
	case len(msg.ToolCalls) > 0:
		data.Event = "tool_calls"
		for _, tc := range msg.ToolCalls {
			data.ToolCalls = append(data.ToolCalls, models.ToolResp{
				ID:   tc.ID,
				Type: "tool_call",
				Name: tc.Function.Name,
			})
			data.ToolCallChunks = append(data.ToolCallChunks, models.ToolChunkResp{
				ID:   tc.ID,
				Type: "tool_call_chunk",
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			})
		}
	default:
		data.Event = "message"
	}

	cb.logger.Debug("graph message",
		zap.String("agent", agent),
		zap.String("event", data.Event),
		zap.Int("content_len", len(msg.Content)),
		zap.Int("tool_calls", len(msg.ToolCalls)))
	cb.push(ctx, data)
}

func (cb *LoggerCallback) pushOutput(ctx context.Context, agent, msgID string, output any) {
	switch v := output.(type) {
	case *schema.Message:
		cb.pushMsg(ctx, agent, msgID, v)
	case *ecmodel.CallbackOutput:
		cb.pushMsg(ctx, agent, msgID, v.Message)
	case []*schema.Message:
		for _, m := range v {
			cb.pushMsg(ctx, agent, msgID, m)
		}
	}
}

func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if info != nil {
		cb.logger.Debug("node start", zap.String("name", info.Name), zap.String("component", string(info.Component)))
	}
	return ctx
}

func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	agent := ""
	if info != nil {
		agent = info.Name
		cb.logger.Debug("node end", zap.String("name", info.Name), zap.String("component", string(info.Component)))
	}
	cb.pushOutput(ctx, agent, uuid.NewString(), output)
	return ctx
}

func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	name := ""
	if info != nil {
		name = info.Name
	}
	cb.logger.Error("node error", zap.String("name", name), zap.Error(err))
	return ctx
}

func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	agent := ""
	if info != nil {
		agent = info.Name
	}
	msgID := uuid.NewString()
	go func() {
		defer output.Close() // remember to close the stream in defer
		defer func() {
			if r := recover(); r != nil {
				cb.logger.Error("stream callback panic", zap.Any("recover", r))
			}
		}()
		for {
			frame, err := output.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				cb.logger.Warn("stream callback recv", zap.Error(err))
				return
			}
			cb.pushOutput(ctx, agent, msgID, frame)
		}
	}()
	return ctx
}

func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}
