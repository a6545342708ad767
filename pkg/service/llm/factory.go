package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"

	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// Factory resolves model identifiers to LLM clients, auto-detecting the
// provider from the model name. Clients are cached per model id.
type Factory struct {
	geminiProject   string
	geminiLocation  string
	openaiAPIKey    string
	anthropicAPIKey string

	mu      sync.Mutex
	clients map[string]gollem.LLMClient
}

// Option configures provider credentials on the factory
type Option func(*Factory)

// WithGemini enables Gemini models via Vertex AI
func WithGemini(projectID, location string) Option {
	return func(f *Factory) {
		f.geminiProject = projectID
		f.geminiLocation = location
	}
}

// WithOpenAI enables OpenAI models
func WithOpenAI(apiKey string) Option {
	return func(f *Factory) {
		f.openaiAPIKey = apiKey
	}
}

// WithAnthropic enables Anthropic models
func WithAnthropic(apiKey string) Option {
	return func(f *Factory) {
		f.anthropicAPIKey = apiKey
	}
}

func New(opts ...Option) *Factory {
	f := &Factory{
		clients: make(map[string]gollem.LLMClient),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the LLM client for the given model id. Settings are the
// agent's model settings; keys beyond model selection are provider
// concerns and are logged when unapplied.
func (f *Factory) Client(ctx context.Context, modelID string, settings map[string]any) (gollem.LLMClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[modelID]; ok {
		return client, nil
	}

	client, err := f.newClient(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if len(settings) > 0 {
		logging.From(ctx).Debug("model settings carried to provider defaults",
			"model", modelID, "settings", settings)
	}

	f.clients[modelID] = client
	return client, nil
}

func (f *Factory) newClient(ctx context.Context, modelID string) (gollem.LLMClient, error) {
	switch {
	case strings.HasPrefix(modelID, "gpt-") || strings.HasPrefix(modelID, "o1") || strings.HasPrefix(modelID, "o3"):
		if f.openaiAPIKey == "" {
			return nil, goerr.New("OpenAI API key is not configured", goerr.V("model", modelID))
		}
		client, err := openai.New(ctx, f.openaiAPIKey, openai.WithModel(modelID))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client", goerr.V("model", modelID))
		}
		return client, nil

	case strings.HasPrefix(modelID, "claude-"):
		if f.anthropicAPIKey == "" {
			return nil, goerr.New("Anthropic API key is not configured", goerr.V("model", modelID))
		}
		client, err := claude.New(ctx, f.anthropicAPIKey, claude.WithModel(modelID))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Anthropic client", goerr.V("model", modelID))
		}
		return client, nil

	default:
		if f.geminiProject == "" {
			return nil, goerr.New("Gemini project is not configured", goerr.V("model", modelID))
		}
		client, err := gemini.New(ctx, f.geminiProject, f.geminiLocation, gemini.WithModel(modelID))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client", goerr.V("model", modelID))
		}
		return client, nil
	}
}
