package openai

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// Markers some open models wrap around tool calls or thoughts.
var contentMarkers = []string{
	"<|END OF THOUGHT|>",
	"<|END_OF_THOUGHT|>",
	"<|endofthought|>",
	"<|python_tag|>",
	"[/TOOLCALL]",
	"</THOUGHT>",
	"<THOUGHT>",
}

// parseToolCallsFromContent recovers tool calls that a model wrote into the
// message body instead of the tool_calls field. Tried in order: a
// <TOOLCALL>...</TOOLCALL> block, the whole content when it starts like
// JSON, the outermost [...] span. Returns nil when nothing named can be recovered.
func parseToolCallsFromContent(content string) []ai.ToolCall {
	cleaned := strings.TrimSpace(content)
	for _, marker := range contentMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	if start := strings.Index(cleaned, "<TOOLCALL>"); start != -1 {
		if end := strings.Index(cleaned, "</TOOLCALL>"); end > start {
			if calls := parseToolCallsJSON(cleaned[start+len("<TOOLCALL>") : end]); len(calls) > 0 {
				return calls
			}
		}
	}
	if strings.HasPrefix(cleaned, "[") || strings.HasPrefix(cleaned, "{") {
		if calls := parseToolCallsJSON(cleaned); len(calls) > 0 {
			return calls
		}
	}
	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start != -1 && end > start {
		return parseToolCallsJSON(cleaned[start : end+1])
	}
	return nil
}

// parseToolCallsJSON decodes a (possibly malformed) array of
// {"name": ..., "arguments": ...} objects. "parameters" is accepted as an
// alias of "arguments".
func parseToolCallsJSON(s string) []ai.ToolCall {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "[") {
		s = "[" + s
	}
	if !strings.HasSuffix(s, "]") {
		lastBrace := strings.LastIndex(s, "}")
		if lastBrace <= 0 {
			return nil
		}
		s = s[:lastBrace+1] + "]"
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil
	}
	var parsed []struct {
		Name       string          `json:"name"`
		Arguments  json.RawMessage `json:"arguments"`
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil
	}

	var calls []ai.ToolCall
	for _, p := range parsed {
		if p.Name == "" {
			continue
		}
		raw := p.Arguments
		if len(raw) == 0 {
			raw = p.Parameters
		}
		args := decodeArguments(raw)
		if args == "" {
			args = "{}"
		}
		calls = append(calls, ai.ToolCall{
			Type:     "function",
			Function: ai.ToolCallFunction{Name: p.Name, Arguments: args},
		})
	}
	return calls
}

// extractReasoningFromThinkTags returns the text inside <think>...</think>.
// A missing opening tag means the reasoning starts at the beginning; the
// closing tag is mandatory.
func extractReasoningFromThinkTags(content string) string {
	start := strings.Index(content, "<think>")
	if start == -1 {
		start = 0
	} else {
		start += len("<think>")
	}
	end := strings.Index(content, "</think>")
	if end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(content[start:end])
}

// cleanThinkTags drops the <think> block, keeping only the answer.
func cleanThinkTags(content string) string {
	start := strings.Index(content, "<think>")
	if start == -1 {
		start = 0
	}
	end := strings.Index(content, "</think>")
	if end == -1 || end < start {
		return content
	}
	return strings.TrimSpace(content[:start] + content[end+len("</think>"):])
}
