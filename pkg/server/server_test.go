package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Haithedotai/core/internal/testutil/grpcbuf"
	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/auth"
	hgrpc "github.com/Haithedotai/core/pkg/grpc"
	"github.com/Haithedotai/core/pkg/model"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakePipeline struct {
	mu     sync.Mutex
	reqs   []*model.CompletionRequest
	err    error
	models []model.Model
}

func (p *fakePipeline) Complete(_ context.Context, req *model.CompletionRequest) (*model.CompletionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	if p.err != nil {
		return nil, p.err
	}
	choices := make([]model.Choice, req.N)
	for i := range choices {
		choices[i] = model.Choice{Index: i, Message: model.ChoiceMessage{Role: "assistant", Content: "ok"}, FinishReason: "stop"}
	}
	return &model.CompletionResult{Choices: choices, TotalCost: 135, CurrentExpenditure: 50, PromptTokens: 2, OrgID: 1, ProjectID: 10}, nil
}

func (p *fakePipeline) EnrolledModels(_ context.Context, orgUID string) ([]model.Model, error) {
	if orgUID != "org-1" {
		return nil, apierr.NotFound("Organization not found")
	}
	return p.models, nil
}

func (p *fakePipeline) requests() []*model.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*model.CompletionRequest(nil), p.reqs...)
}

type authFunc func(ctx context.Context, h http.Header) (*auth.Caller, error)

func (f authFunc) FromHeaders(ctx context.Context, h http.Header) (*auth.Caller, error) {
	return f(ctx, h)
}

// bearerGood accepts "Bearer good" and takes the UIDs from the Haithe headers.
var bearerGood = authFunc(func(_ context.Context, h http.Header) (*auth.Caller, error) {
	if h.Get("Authorization") != "Bearer good" {
		return nil, apierr.Unauthorized("Unauthorized")
	}
	return &auth.Caller{
		Wallet:     "0x00000000000000000000000000000000000000Ee",
		OrgUID:     h.Get(auth.HeaderOrganization),
		ProjectUID: h.Get(auth.HeaderProject),
	}, nil
})

func newTestServer(p *fakePipeline, probes map[string]Probe) *Server {
	s := New(Deps{Pipeline: p, Auth: bearerGood, Probes: probes})
	s.now = func() time.Time { return fixedNow }
	return s
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

var authHeaders = map[string]string{
	"Authorization":         "Bearer good",
	auth.HeaderOrganization: "org-1",
	auth.HeaderProject:      "proj-1",
}

func TestChatCompletions(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)

	body := `{"model":"paid-model","messages":[
		{"role":"system","content":"be brief"},
		{"role":"user","content":[{"type":"text","text":"hello"},{"type":"image_url","image_url":{"url":"x"}},{"type":"text","text":"world"}]}
	]}`
	rec := do(t, s, http.MethodPost, "/v1beta/openai/chat/completions", body, authHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get(TraceHeader) == "" {
		t.Fatalf("missing trace header")
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "chatcmpl-") {
		t.Fatalf("id = %q", resp.ID)
	}
	resp.ID = ""
	want := ChatResponse{
		Object:  "chat.completion",
		Created: fixedNow.Unix(),
		Model:   "paid-model",
		Choices: []model.Choice{{Index: 0, Message: model.ChoiceMessage{Role: "assistant", Content: "ok"}, FinishReason: "stop"}},
		Usage:   Usage{TotalCost: 135, ExpenseTillNow: 50, PromptTokens: 2},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}

	reqs := p.requests()
	if len(reqs) != 1 {
		t.Fatalf("pipeline called %d times", len(reqs))
	}
	wantReq := &model.CompletionRequest{
		Model: "paid-model",
		Messages: []model.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello\nworld"},
		},
		Temperature: DefaultTemperature,
		N:           DefaultN,
		OrgUID:      "org-1",
		ProjectUID:  "proj-1",
		Wallet:      "0x00000000000000000000000000000000000000Ee",
	}
	if diff := cmp.Diff(wantReq, reqs[0]); diff != "" {
		t.Fatalf("pipeline request mismatch (-want +got):\n%s", diff)
	}
}

func TestChatCompletionsOptions(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)

	rec := do(t, s, http.MethodPost, "/v1beta/openai/chat/completions",
		`{"model":"m","messages":[{"role":"user","content":"hi"}],"n":3,"temperature":0.2}`, authHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	req := p.requests()[0]
	if req.N != 3 || req.Temperature != float32(0.2) {
		t.Fatalf("n=%d temperature=%v", req.N, req.Temperature)
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Choices) != 3 {
		t.Fatalf("choices = %d", len(resp.Choices))
	}
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		body    string
		err     error
		status  int
		message string
		called  bool
	}{
		{
			name:    "unauthenticated",
			headers: map[string]string{"Authorization": "Bearer bad"},
			body:    `{"model":"m"}`,
			status:  http.StatusUnauthorized,
			message: "Unauthorized",
		},
		{
			name:    "malformed body",
			headers: authHeaders,
			body:    `{"model":`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "missing model",
			headers: authHeaders,
			body:    `{"messages":[]}`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "insufficient funds",
			headers: authHeaders,
			body:    `{"model":"m"}`,
			err:     apierr.BadRequest("Insufficient funds"),
			status:  http.StatusBadRequest,
			message: "Insufficient funds",
			called:  true,
		},
		{
			name:    "forbidden model",
			headers: authHeaders,
			body:    `{"model":"m"}`,
			err:     apierr.Forbidden("Model is not enabled for this organization"),
			status:  http.StatusForbidden,
			message: "Model is not enabled for this organization",
			called:  true,
		},
		{
			name:    "internal detail hidden",
			headers: authHeaders,
			body:    `{"model":"m"}`,
			err:     apierr.Internal("Failed to call balanceOf", errors.New("dial tcp 10.0.0.1: refused")),
			status:  http.StatusInternalServerError,
			message: "Failed to call balanceOf",
			called:  true,
		},
		{
			name:    "unclassified error",
			headers: authHeaders,
			body:    `{"model":"m"}`,
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Internal error",
			called:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{err: tt.err}
			s := newTestServer(p, nil)

			rec := do(t, s, http.MethodPost, "/v1beta/openai/chat/completions", tt.body, tt.headers)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			var env ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(ErrorResponse{Success: false, Message: tt.message}, env); diff != "" {
				t.Fatalf("envelope mismatch (-want +got):\n%s", diff)
			}
			if called := len(p.requests()) > 0; called != tt.called {
				t.Fatalf("pipeline called = %v, want %v", called, tt.called)
			}
		})
	}
}

func TestModels(t *testing.T) {
	p := &fakePipeline{models: []model.Model{{ID: 1, Name: "gemini-2.0-flash"}, {ID: 15, Name: "moonshotai/kimi-k2-instruct"}}}
	s := newTestServer(p, nil)

	rec := do(t, s, http.MethodGet, "/v1beta/openai/models", "", authHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var list ModelList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ModelList{Object: "list", Data: []ModelEntry{
		{ID: "gemini-2.0-flash", Object: "model"},
		{ID: "moonshotai/kimi-k2-instruct", Object: "model"},
	}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	headers := map[string]string{"Authorization": "Bearer good", auth.HeaderOrganization: "org-9", auth.HeaderProject: "p"}
	if rec := do(t, s, http.MethodGet, "/v1beta/openai/models", "", headers); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown org status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	s := newTestServer(&fakePipeline{}, map[string]Probe{"database": ok, "chain": ok})
	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(HealthReport{Status: "ok", Checks: map[string]string{"database": "ok", "chain": "ok"}}, report); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	s = newTestServer(&fakePipeline{}, map[string]Probe{"database": ok, "chain": down})
	rec = do(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != "degraded" || report.Checks["chain"] != "connection refused" {
		t.Fatalf("report = %+v", report)
	}
}

func TestTraceIDAndNotFound(t *testing.T) {
	s := newTestServer(&fakePipeline{}, nil)

	rec := do(t, s, http.MethodGet, "/nope", "", map[string]string{TraceHeader: "abc123"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(TraceHeader); got != "abc123" {
		t.Fatalf("trace id = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&fakePipeline{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1beta/openai/chat/completions", nil)
	req.Header.Set("Origin", "https://app.haithe.ai")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,haithe-organization")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestGRPC(t *testing.T) {
	p := &fakePipeline{models: []model.Model{{ID: 1, Name: "gemini-2.0-flash"}}}
	s := newTestServer(p, map[string]Probe{"database": func(context.Context) error { return nil }})

	var hsErr error
	var hs *health.Server
	srv, lis, _ := grpcbuf.Start(func(g *grpc.Server) {
		h, err := s.RegisterGRPC(g)
		hsErr = err
		if err == nil {
			hs = h
			s.updateHealth(context.Background(), h)
		}
	}, grpc.ChainUnaryInterceptor(logUnary))
	defer srv.Stop()
	if hsErr != nil {
		t.Fatalf("RegisterGRPC: %v", hsErr)
	}
	defer hs.Shutdown()

	client, err := hgrpc.NewClient(grpcbuf.Target, nil, grpcbuf.Dialer(lis))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer func() { _ = client.Close() }()

	ctx := metadata.AppendToOutgoingContext(context.Background(),
		"authorization", "Bearer good",
		"haithe-organization", "org-1",
		"haithe-project", "proj-1")

	t.Run("Complete", func(t *testing.T) {
		out, err := client.CallWithJSON(ctx, "Complete", []byte(`{"model":"paid-model","messages":[{"role":"user","content":"hi"}],"n":2}`))
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		var resp struct {
			ID      string `json:"id"`
			Object  string `json:"object"`
			Choices []struct {
				Index        int    `json:"index"`
				FinishReason string `json:"finish_reason"`
			} `json:"choices"`
			Usage struct {
				TotalCost      string `json:"total_cost"`
				ExpenseTillNow string `json:"expense_till_now"`
			} `json:"usage"`
		}
		if err := json.Unmarshal(out, &resp); err != nil {
			t.Fatalf("decode %s: %v", out, err)
		}
		if !strings.HasPrefix(resp.ID, "chatcmpl-") || resp.Object != "chat.completion" || len(resp.Choices) != 2 ||
			resp.Choices[1].Index != 1 || resp.Usage.TotalCost != "135" || resp.Usage.ExpenseTillNow != "50" {
			t.Fatalf("unexpected response %s", out)
		}
		last := p.requests()[len(p.requests())-1]
		if last.OrgUID != "org-1" || last.ProjectUID != "proj-1" || last.N != 2 || last.Temperature != DefaultTemperature {
			t.Fatalf("pipeline request %+v", last)
		}
	})

	t.Run("ListModels", func(t *testing.T) {
		out, err := client.CallWithMap(ctx, "ListModels", map[string]any{})
		if err != nil {
			t.Fatalf("ListModels: %v", err)
		}
		data, _ := out["data"].([]any)
		if out["object"] != "list" || len(data) != 1 {
			t.Fatalf("unexpected response %v", out)
		}
	})

	t.Run("status codes", func(t *testing.T) {
		_, err := client.CallWithJSON(context.Background(), "Complete", []byte(`{"model":"m"}`))
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("err = %v, want Unauthenticated", err)
		}

		p.mu.Lock()
		p.err = apierr.BadRequest("Insufficient funds")
		p.mu.Unlock()
		_, err = client.CallWithJSON(ctx, "Complete", []byte(`{"model":"m"}`))
		if st, _ := status.FromError(err); st.Code() != codes.InvalidArgument || st.Message() != "Insufficient funds" {
			t.Fatalf("err = %v, want InvalidArgument", err)
		}
	})

	t.Run("health", func(t *testing.T) {
		conn, err := grpcbuf.Dial(lis)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		defer func() { _ = conn.Close() }()

		resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: hgrpc.CompletionService})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("status = %v", resp.GetStatus())
		}
	})
}
