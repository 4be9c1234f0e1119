package ai

import (
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Contains all messages in the conversation except system prompt
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`             // Contains tool definitions if any
	ToolChoice       *ToolChoice       `json:"tool_choice,omitempty"`       // Optional tool selection policy
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
	Stream           bool              `json:"stream,omitempty"`            // Forwarded verbatim, responses are never assembled from chunks
}

// ToolDescription describes a callable the model may invoke.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// ToolChoice constrains which tool the model may call.
// A non-empty Name forces that single tool; otherwise Mode applies.
type ToolChoice struct {
	Mode string `json:"mode,omitempty"` // "auto", "none" or "required"
	Name string `json:"name,omitempty"` // Forced tool name
}

const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// ForceTool returns a ToolChoice that forces the named tool.
func ForceTool(name string) *ToolChoice {
	return &ToolChoice{Name: name}
}

// Message represents a single message in a conversation
type Message struct {
	// Core fields (always present)
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls    []ToolCall        `json:"tool_calls,omitempty"`    // For role=assistant requesting tools
	FunctionCall *ToolCallFunction `json:"function_call,omitempty"` // For role=assistant, legacy single function call
	ToolCallID   string            `json:"tool_call_id,omitempty"`  // For role=tool, links to the tool call being responded to
	Name         string            `json:"name,omitempty"`          // For role=tool, name of the tool that generated this response

	// Extended fields
	Refusal string `json:"refusal,omitempty"` // If model refuses to respond (safety/policy)
}

type GenerationConfig struct {
	MaxTokens        int     `json:"max_tokens,omitempty"`        // Optional max tokens for the response
	Temperature      float32 `json:"temperature,omitempty"`       // Sampling temperature [0..2]. Higher => more random; lower => more deterministic.
	TopP             float32 `json:"top_p,omitempty"`             // Nucleus (top-p) sampling [0..1]. Alternative to temperature.
	FrequencyPenalty float32 `json:"frequency_penalty,omitempty"` // Penalty [-2..2]. Positive values reduce repetition by penalizing frequent tokens.
	PresencePenalty  float32 `json:"presence_penalty,omitempty"`  // Penalty [-2..2]. Positive values encourage new topics.
	MaxOutputTokens  int     `json:"max_output_tokens,omitempty"` // Optional max tokens specifically for the output (if supported by provider)
	Seed             *int    `json:"seed,omitempty"`              // Optional sampling seed
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Extended token metrics
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`
	CachedTokens    int `json:"cached_tokens,omitempty"`
}

// ChatResponse represents the first choice of a chat completion
type ChatResponse struct {
	Id           string            `json:"id"`
	Model        string            `json:"model"`
	Object       string            `json:"object"`
	Created      int64             `json:"created"`
	Role         MessageRole       `json:"role,omitempty"`
	Content      string            `json:"content"`
	ToolCalls    []ToolCall        `json:"tool_calls,omitempty"`
	FunctionCall *ToolCallFunction `json:"function_call,omitempty"` // Legacy single function call
	FinishReason string            `json:"finish_reason,omitempty"`
	Usage        *Usage            `json:"usage,omitempty"`

	// Extended fields
	Refusal   string `json:"refusal,omitempty"`   // If model refuses to respond (safety/policy)
	Reasoning string `json:"reasoning,omitempty"` // Chain-of-thought returned separately or inside <think> tags
}

// Invocation returns the function the model invoked: the legacy function call
// when present, otherwise the first tool call.
func (r *ChatResponse) Invocation() (ToolCallFunction, bool) {
	if r == nil {
		return ToolCallFunction{}, false
	}
	if r.FunctionCall != nil {
		return *r.FunctionCall, true
	}
	if len(r.ToolCalls) > 0 {
		return r.ToolCalls[0].Function, true
	}
	return ToolCallFunction{}, false
}

/*
	##### ENUMS #####
*/

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string           `json:"type"`         // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Middle llm response
	RoleTool      MessageRole = "tool"      // Tool/function output
)
