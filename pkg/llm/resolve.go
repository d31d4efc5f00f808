package llm

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/Haithedotai/core/pkg/config"
	"github.com/Haithedotai/core/pkg/model"
)

// DefaultEndpoints are the provider base URLs. An empty Google entry keeps the
// genai SDK default.
var DefaultEndpoints = map[string]string{
	model.ProviderOpenAI:   "https://api.openai.com/v1",
	model.ProviderGoogle:   "",
	model.ProviderDeepSeek: "https://api.deepseek.com/v1",
	model.ProviderMoonshot: "https://api.moonshot.com/v1",
	model.ProviderHaithe:   "https://api.groq.com/openai/v1",
}

// Resolver maps catalogue models to provider clients.
type Resolver struct {
	keys       config.Providers
	httpClient *http.Client
	endpoints  map[string]string

	mu     sync.Mutex
	gemini *GeminiClient
}

// NewResolver returns a Resolver using keys. A nil httpClient uses
// http.DefaultClient.
func NewResolver(keys config.Providers, httpClient *http.Client) *Resolver {
	endpoints := make(map[string]string, len(DefaultEndpoints))
	for k, v := range DefaultEndpoints {
		endpoints[k] = v
	}
	return &Resolver{keys: keys, httpClient: httpClient, endpoints: endpoints}
}

// SetEndpoint overrides the base URL of provider.
func (r *Resolver) SetEndpoint(provider, baseURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[provider] = baseURL
	if provider == model.ProviderGoogle {
		r.gemini = nil
	}
}

// Resolve returns a client for m. It fails for inactive models, unknown
// providers and providers without an API key.
func (r *Resolver) Resolve(ctx context.Context, m model.Model) (Client, error) {
	if !m.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrInactiveModel, m.Name)
	}

	key, err := r.apiKey(m.Provider)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAPIKey, m.Provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m.Provider == model.ProviderGoogle {
		if r.gemini == nil {
			g, err := NewGeminiClient(ctx, key, r.endpoints[model.ProviderGoogle], "")
			if err != nil {
				return nil, err
			}
			r.gemini = g
		}
		return r.gemini.withModel(m.Name), nil
	}
	return NewOpenAIClient(r.endpoints[m.Provider], key, m.Name, r.httpClient), nil
}

func (r *Resolver) apiKey(provider string) (string, error) {
	switch provider {
	case model.ProviderGoogle:
		return r.keys.GeminiAPIKey, nil
	case model.ProviderOpenAI:
		return r.keys.OpenAIAPIKey, nil
	case model.ProviderDeepSeek:
		return r.keys.DeepSeekAPIKey, nil
	case model.ProviderMoonshot:
		return r.keys.MoonshotAPIKey, nil
	case model.ProviderHaithe:
		return r.keys.GroqAPIKey, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
