package extract

import (
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/utils"
	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/providers/ai"
)

// CorrectivePrefix opens the user turn that reports a failed attempt.
const CorrectivePrefix = "Recall the function correctly, exceptions found\n"

// assistantTurn replays a failed answer as plain conversation: the text
// content followed by the JSON of its tool calls and function call.
func assistantTurn(response *ai.ChatResponse) ai.Message {
	role := response.Role
	if role == "" {
		role = ai.RoleAssistant
	}

	content := response.Content
	if len(response.ToolCalls) > 0 {
		content += utils.JSONToString(response.ToolCalls)
	}
	if response.FunctionCall != nil {
		content += utils.JSONToString(response.FunctionCall)
	}
	return ai.Message{Role: role, Content: content}
}

func correctiveTurn(err error) ai.Message {
	return ai.Message{Role: ai.RoleUser, Content: CorrectivePrefix + err.Error()}
}
