// Package llm talks to the chat-completion providers behind the catalogue
// models and builds the agent context a completion runs with.
package llm

import (
	"context"
	"errors"

	"github.com/Haithedotai/core/pkg/model"
)

var (
	// ErrMissingAPIKey is returned when the provider of a model has no key configured.
	ErrMissingAPIKey = errors.New("llm: provider API key not configured")
	// ErrInactiveModel is returned when resolving a model that is switched off.
	ErrInactiveModel = errors.New("llm: model is not active")
	// ErrUnknownProvider is returned for a catalogue entry with an unsupported provider.
	ErrUnknownProvider = errors.New("llm: unsupported provider")
	// ErrEmptyCompletion is returned when a provider answers without any text.
	ErrEmptyCompletion = errors.New("llm: provider returned no completion")
)

// Request is a single completion call. History holds earlier user and
// assistant turns, oldest first.
type Request struct {
	System      string
	History     []model.Message
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// Client completes one prompt and returns the assistant text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
