package models

type ToolResp struct {
	ID   string         `json:"id,omitempty"`
	Type string         `json:"type,omitempty"`
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolChunkResp struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
	Args string `json:"args,omitempty"`
}

// ChatResp is one event emitted by the graph logger callback.
type ChatResp struct {
	RunID          string          `json:"run_id,omitempty"`
	Event          string          `json:"event,omitempty"`
	Agent          string          `json:"agent,omitempty"`
	ID             string          `json:"id,omitempty"`
	Role           string          `json:"role,omitempty"`
	Content        string          `json:"content,omitempty"`
	FinishReason   string          `json:"finish_reason,omitempty"`
	ToolCallID     string          `json:"tool_call_id,omitempty"`
	ToolCalls      []ToolResp      `json:"tool_calls,omitempty"`
	ToolCallChunks []ToolChunkResp `json:"tool_call_chunks,omitempty"`
}
