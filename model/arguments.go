package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/hupe1980/agentloop/core"
)

// DecodeArguments parses the raw JSON arguments of a tool call. Models
// occasionally emit malformed JSON (trailing commas, single quotes, truncated
// objects); such input is repaired before giving up.
func DecodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		if args == nil {
			args = map[string]any{}
		}
		return args, nil
	}

	fixed, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &args); err != nil {
		return nil, fmt.Errorf("decode repaired tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// EncodeArguments renders tool call arguments as a JSON object string.
func EncodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// NewToolCall builds a core.ToolCall from provider output. A missing id is
// replaced with a generated one so tool results can always reference it.
// Undecodable arguments are kept under the "_raw" key and surface later as a
// validation failure of the tool.
func NewToolCall(id, name, rawArgs string) core.ToolCall {
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args, err := DecodeArguments(rawArgs)
	if err != nil {
		args = map[string]any{"_raw": rawArgs}
	}
	return core.ToolCall{ID: id, Name: name, Arguments: args}
}
