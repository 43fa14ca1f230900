package model

import "encoding/json"

// ToolRecord captures one tool invocation for the audit sink.
type ToolRecord struct {
	Tool       string          `json:"tool"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	IsError    bool            `json:"is_error"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Timestamp  int64           `json:"timestamp"`
}
