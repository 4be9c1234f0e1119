package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

type chatCompletionRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         *float64      `json:"temperature,omitempty"`
	TopP                *float64      `json:"top_p,omitempty"`
	MaxTokens           *int          `json:"max_tokens,omitempty"`            // Legacy, still accepted
	MaxCompletionTokens *int          `json:"max_completion_tokens,omitempty"` // Preferred
	FrequencyPenalty    *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64      `json:"presence_penalty,omitempty"`
	Seed                *int          `json:"seed,omitempty"`
	Stream              bool          `json:"stream,omitempty"`

	// Tool calling - current format
	Tools      []chatTool `json:"tools,omitempty"`
	ToolChoice any        `json:"tool_choice,omitempty"` // "auto", "none", "required" or {"type":"function","function":{"name":...}}

	// Tool calling - legacy format
	Functions    []chatFunction `json:"functions,omitempty"`
	FunctionCall any            `json:"function_call,omitempty"` // "auto", "none" or {"name":...}
}

type chatMessage struct {
	Role         string            `json:"role"`
	Content      string            `json:"content"`
	Name         string            `json:"name,omitempty"`
	ToolCallID   string            `json:"tool_call_id,omitempty"`
	ToolCalls    []chatToolCall    `json:"tool_calls,omitempty"`
	FunctionCall *chatFunctionCall `json:"function_call,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

// chatFunctionCall carries arguments as raw JSON: OpenAI sends a string,
// some compatible servers send the object itself.
type chatFunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID                string       `json:"id"`
	Object            string       `json:"object"`
	Created           int64        `json:"created"`
	Model             string       `json:"model"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
	Choices           []chatChoice `json:"choices"`
	Usage             *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"` // "stop", "length", "tool_calls", "function_call", "content_filter"
}

type chatResponseMessage struct {
	Role             string            `json:"role"`
	Content          string            `json:"content,omitempty"`
	ToolCalls        []chatToolCall    `json:"tool_calls,omitempty"`
	FunctionCall     *chatFunctionCall `json:"function_call,omitempty"`
	Refusal          string            `json:"refusal,omitempty"`
	Reasoning        string            `json:"reasoning,omitempty"`         // OpenRouter
	ReasoningContent string            `json:"reasoning_content,omitempty"` // DeepSeek, vLLM
}

type chatUsage struct {
	PromptTokens            int `json:"prompt_tokens"`
	CompletionTokens        int `json:"completion_tokens"`
	TotalTokens             int `json:"total_tokens"`
	CompletionTokensDetails *struct {
		ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	} `json:"completion_tokens_details,omitempty"`
	PromptTokensDetails *struct {
		CachedTokens int `json:"cached_tokens,omitempty"`
	} `json:"prompt_tokens_details,omitempty"`
}

/*
	CONVERSION FUNCTIONS
*/

// requestToChatCompletion converts ai.ChatRequest to the wire format.
func requestToChatCompletion(request ai.ChatRequest, useLegacyFunctions bool) (chatCompletionRequest, error) {
	req := chatCompletionRequest{
		Model:  request.Model,
		Stream: request.Stream,
	}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, msg := range request.Messages {
		chatMsg := chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			chatMsg.ToolCalls = append(chatMsg.ToolCalls, chatToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: chatFunctionCall{Name: tc.Function.Name, Arguments: encodeArguments(tc.Function.Arguments)},
			})
		}
		if msg.FunctionCall != nil {
			chatMsg.FunctionCall = &chatFunctionCall{Name: msg.FunctionCall.Name, Arguments: encodeArguments(msg.FunctionCall.Arguments)}
		}
		req.Messages = append(req.Messages, chatMsg)
	}

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.Temperature > 0 {
			temp := float64(cfg.Temperature)
			req.Temperature = &temp
		}
		if cfg.TopP > 0 {
			topP := float64(cfg.TopP)
			req.TopP = &topP
		}
		if cfg.FrequencyPenalty != 0 {
			penalty := float64(cfg.FrequencyPenalty)
			req.FrequencyPenalty = &penalty
		}
		if cfg.PresencePenalty != 0 {
			penalty := float64(cfg.PresencePenalty)
			req.PresencePenalty = &penalty
		}
		if cfg.MaxOutputTokens > 0 {
			req.MaxCompletionTokens = &cfg.MaxOutputTokens
		} else if cfg.MaxTokens > 0 {
			req.MaxTokens = &cfg.MaxTokens
		}
		req.Seed = cfg.Seed
	}

	if len(request.Tools) == 0 {
		if request.ToolChoice != nil && request.ToolChoice.Name != "" {
			return req, fmt.Errorf("%s: tool choice forces %q but no tools were given", providerName, request.ToolChoice.Name)
		}
		return req, nil
	}

	functions := make([]chatFunction, 0, len(request.Tools))
	for _, tl := range request.Tools {
		functions = append(functions, chatFunction{Name: tl.Name, Description: tl.Description, Parameters: tl.Parameters})
	}
	choice, err := toolChoice(request.ToolChoice, functions, useLegacyFunctions)
	if err != nil {
		return req, err
	}

	if useLegacyFunctions {
		req.Functions = functions
		req.FunctionCall = choice
		return req, nil
	}
	for _, fn := range functions {
		req.Tools = append(req.Tools, chatTool{Type: "function", Function: fn})
	}
	req.ToolChoice = choice
	return req, nil
}

// toolChoice renders the selector. A forced name must match a declared
// function. The legacy format has no "required": it is mapped to forcing
// the single function when there is exactly one, else to "auto".
func toolChoice(choice *ai.ToolChoice, functions []chatFunction, legacy bool) (any, error) {
	if choice == nil {
		return ai.ToolChoiceAuto, nil
	}

	if choice.Name != "" {
		found := false
		for _, fn := range functions {
			if fn.Name == choice.Name {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: tool choice forces unknown tool %q", providerName, choice.Name)
		}
		if legacy {
			return map[string]string{"name": choice.Name}, nil
		}
		return map[string]any{
			"type":     "function",
			"function": map[string]string{"name": choice.Name},
		}, nil
	}

	switch choice.Mode {
	case "", ai.ToolChoiceAuto:
		return ai.ToolChoiceAuto, nil
	case ai.ToolChoiceNone:
		return ai.ToolChoiceNone, nil
	case ai.ToolChoiceRequired:
		if !legacy {
			return ai.ToolChoiceRequired, nil
		}
		if len(functions) == 1 {
			return map[string]string{"name": functions[0].Name}, nil
		}
		return ai.ToolChoiceAuto, nil
	default:
		return nil, fmt.Errorf("%s: unknown tool choice mode %q", providerName, choice.Mode)
	}
}

// chatCompletionToGeneric converts the first choice to ai.ChatResponse.
// Tool calls written into the content are only recovered when they name one
// of the declared tools.
func chatCompletionToGeneric(resp chatCompletionResponse, declared []ai.ToolDescription) *ai.ChatResponse {
	out := &ai.ChatResponse{
		Id:      resp.ID,
		Model:   resp.Model,
		Object:  resp.Object,
		Created: resp.Created,
	}
	if resp.Usage != nil {
		out.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		if resp.Usage.CompletionTokensDetails != nil {
			out.Usage.ReasoningTokens = resp.Usage.CompletionTokensDetails.ReasoningTokens
		}
		if resp.Usage.PromptTokensDetails != nil {
			out.Usage.CachedTokens = resp.Usage.PromptTokensDetails.CachedTokens
		}
	}
	if len(resp.Choices) == 0 {
		out.FinishReason = "error"
		return out
	}

	choice := resp.Choices[0]
	msg := choice.Message
	out.Role = ai.MessageRole(msg.Role)
	if out.Role == "" {
		out.Role = ai.RoleAssistant
	}
	out.Refusal = msg.Refusal
	out.FinishReason = choice.FinishReason

	explicit := strings.TrimSpace(msg.Reasoning)
	if explicit == "" {
		explicit = strings.TrimSpace(msg.ReasoningContent)
	}
	content := strings.TrimSpace(msg.Content)
	switch {
	case content != "":
		reasoning := explicit
		if strings.Contains(content, "</think>") {
			if inline := extractReasoningFromThinkTags(content); inline != "" {
				reasoning = strings.TrimSpace(reasoning + "\n" + inline)
			}
			content = cleanThinkTags(content)
		}
		out.Reasoning = reasoning
	case explicit != "":
		// Some servers put the whole answer in the reasoning field.
		out.Reasoning = extractReasoningFromThinkTags(explicit)
		if out.Reasoning == "" {
			out.Reasoning = explicit
		} else {
			content = cleanThinkTags(explicit)
		}
	}
	out.Content = content

	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: ai.ToolCallFunction{Name: tc.Function.Name, Arguments: decodeArguments(tc.Function.Arguments)},
		})
	}
	if msg.FunctionCall != nil {
		out.FunctionCall = &ai.ToolCallFunction{Name: msg.FunctionCall.Name, Arguments: decodeArguments(msg.FunctionCall.Arguments)}
	}

	if len(out.ToolCalls) == 0 && out.FunctionCall == nil && out.Content != "" {
		if parsed := declaredCalls(parseToolCallsFromContent(out.Content), declared); len(parsed) > 0 {
			out.ToolCalls = parsed
			if out.FinishReason == "stop" {
				out.FinishReason = "tool_calls"
			}
		}
	}
	return out
}

// declaredCalls drops calls whose name is not a declared tool.
func declaredCalls(calls []ai.ToolCall, declared []ai.ToolDescription) []ai.ToolCall {
	if len(calls) == 0 || len(declared) == 0 {
		return nil
	}
	names := make(map[string]struct{}, len(declared))
	for _, tool := range declared {
		names[tool.Name] = struct{}{}
	}
	kept := calls[:0]
	for _, call := range calls {
		if _, ok := names[call.Function.Name]; ok {
			kept = append(kept, call)
		}
	}
	return kept
}

// encodeArguments renders an arguments string as a JSON string literal.
func encodeArguments(arguments string) json.RawMessage {
	encoded, _ := json.Marshal(arguments)
	return encoded
}

// decodeArguments returns the arguments document: the content of a JSON
// string, or the raw object when the server sent one.
func decodeArguments(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
