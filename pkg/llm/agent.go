package llm

import (
	"context"
	"strings"

	"github.com/Haithedotai/core/pkg/knowledge"
	"github.com/Haithedotai/core/pkg/model"
)

// BaseInstruction opens every system prompt.
const BaseInstruction = "You are an AI assistant integrated with the Haithe platform. You can use the attached knowledge to answer context aware questions when the user asks about them, else you can answer in general."

// Agent holds the context a completion runs with: the prompt-set preamble,
// the assembled knowledge and the sampling parameters.
type Agent struct {
	Client      Client
	Preamble    string
	Knowledge   []knowledge.Document
	Temperature float32
	MaxTokens   int32
}

// System renders the system prompt: preamble, base instruction, then the
// knowledge attachments.
func (a *Agent) System() string {
	var sb strings.Builder
	if p := strings.TrimSpace(a.Preamble); p != "" {
		sb.WriteString(p)
		sb.WriteString("\n\n")
	}
	sb.WriteString(BaseInstruction)
	if len(a.Knowledge) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(knowledge.Render(a.Knowledge))
	}
	return sb.String()
}

// Prompt runs one completion of prompt on top of history.
func (a *Agent) Prompt(ctx context.Context, history []model.Message, prompt string) (string, error) {
	return a.Client.Complete(ctx, Request{
		System:      a.System(),
		History:     history,
		Prompt:      prompt,
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
	})
}

// JoinMessages builds the single prompt sent for a chat request: every
// non-empty message content, in order, separated by newlines.
func JoinMessages(messages []model.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}
