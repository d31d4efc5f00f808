package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/knowledge"
	"github.com/Haithedotai/core/pkg/llm"
	"github.com/Haithedotai/core/pkg/memory"
	"github.com/Haithedotai/core/pkg/model"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

// execute runs the model ent.N times on the joined prompt. It returns the
// choices and the prompt that was sent.
func (p *Pipeline) execute(ctx context.Context, ent *Entitlement, asm *Assembly, client llm.Client, req *model.CompletionRequest) ([]model.Choice, string, error) {
	prompt := llm.JoinMessages(req.Messages)
	log := zap.L().With(zap.String("projectUID", ent.Project.UID))

	docs := asm.Knowledge
	if ent.Project.SearchEnabled && p.deps.Search != nil {
		if results, err := p.deps.Search.Search(ctx, prompt); err != nil {
			log.Warn("Web search failed", zap.Error(err))
		} else if len(results) > 0 {
			docs = append(append([]knowledge.Document(nil), docs...), llm.ResultsDocument(prompt, results))
		}
	}

	agent := &llm.Agent{
		Client:      client,
		Preamble:    asm.Preamble,
		Knowledge:   docs,
		Temperature: req.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	}

	var window memory.Window
	var history []model.Message
	if ent.Project.MemoryEnabled && p.deps.Memory != nil {
		window = p.deps.Memory.GetOrCreate(ent.Project.UID)
		h, err := window.Snapshot(ctx)
		if err != nil {
			log.Warn("Failed to read conversation memory", zap.Error(err))
		}
		history = h
	}

	choices := make([]model.Choice, 0, ent.N)
	for i := range ent.N {
		text, err := p.prompt(ctx, agent, history, prompt)
		if err != nil {
			return nil, prompt, apierr.Internal("Failed to generate completion", err)
		}
		choices = append(choices, model.Choice{
			Index:        i,
			Message:      model.ChoiceMessage{Role: roleAssistant, Content: text},
			FinishReason: "stop",
		})
	}

	if window != nil {
		err := window.Append(context.WithoutCancel(ctx),
			model.Message{Role: roleUser, Content: prompt},
			model.Message{Role: roleAssistant, Content: choices[0].Message.Content})
		if err != nil {
			log.Warn("Failed to update conversation memory", zap.Error(err))
		}
	}
	return choices, prompt, nil
}

func (p *Pipeline) prompt(ctx context.Context, agent *llm.Agent, history []model.Message, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.LLMTimeout)
	defer cancel()
	return agent.Prompt(ctx, history, prompt)
}
