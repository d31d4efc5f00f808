package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/auth"
	"github.com/Haithedotai/core/pkg/model"
)

// Request defaults.
const (
	DefaultTemperature float32 = 1.0
	DefaultN           uint32  = 1
)

// ChatRequest is the body of a chat completion call.
type ChatRequest struct {
	Model       string        `json:"model" binding:"required"`
	Messages    []ChatMessage `json:"messages"`
	N           *uint32       `json:"n,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
}

// ChatMessage is one input message.
type ChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent accepts a plain string or an array of content parts, of
// which only the text parts are kept.
type MessageContent string

func (m *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = MessageContent(s)
		return nil
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("message content must be a string or an array of parts: %w", err)
	}
	var texts []string
	for _, p := range parts {
		if p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	*m = MessageContent(strings.Join(texts, "\n"))
	return nil
}

// ChatResponse is the OpenAI-compatible completion response.
type ChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []model.Choice `json:"choices"`
	Usage   Usage          `json:"usage"`
}

// Usage reports the cost of a call in the smallest token unit.
// ExpenseTillNow is the organization expenditure before the call.
type Usage struct {
	TotalCost      uint64 `json:"total_cost"`
	ExpenseTillNow uint64 `json:"expense_till_now"`
	PromptTokens   uint64 `json:"prompt_tokens"`
}

// ModelList is the response of the models endpoint.
type ModelList struct {
	Object string       `json:"object"`
	Data   []ModelEntry `json:"data"`
}

// ModelEntry is one enrolled model.
type ModelEntry struct {
	ID     string `json:"id"`
	Object string `json:"object"`
}

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r *ChatRequest) toCompletion(caller *auth.Caller) *model.CompletionRequest {
	req := &model.CompletionRequest{
		Model:       r.Model,
		Temperature: DefaultTemperature,
		N:           DefaultN,
		OrgUID:      caller.OrgUID,
		ProjectUID:  caller.ProjectUID,
		Wallet:      caller.Wallet,
	}
	if r.N != nil {
		req.N = *r.N
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
	}
	for _, m := range r.Messages {
		req.Messages = append(req.Messages, model.Message{Role: m.Role, Content: string(m.Content)})
	}
	return req
}

// complete runs a chat request for an authenticated caller. It is shared by
// the HTTP and gRPC surfaces.
func (s *Server) complete(ctx context.Context, caller *auth.Caller, req *ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, apierr.BadRequest("Invalid model")
	}
	res, err := s.deps.Pipeline.Complete(ctx, req.toCompletion(caller))
	if err != nil {
		return nil, err
	}
	return &ChatResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: s.now().Unix(),
		Model:   req.Model,
		Choices: res.Choices,
		Usage: Usage{
			TotalCost:      res.TotalCost,
			ExpenseTillNow: res.CurrentExpenditure,
			PromptTokens:   res.PromptTokens,
		},
	}, nil
}

func (s *Server) listModels(ctx context.Context, caller *auth.Caller) (*ModelList, error) {
	models, err := s.deps.Pipeline.EnrolledModels(ctx, caller.OrgUID)
	if err != nil {
		return nil, err
	}
	list := &ModelList{Object: "list", Data: []ModelEntry{}}
	for _, m := range models {
		list.Data = append(list.Data, ModelEntry{ID: m.Name, Object: "model"})
	}
	return list, nil
}
