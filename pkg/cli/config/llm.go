package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/catalpa-lab/dynagent/pkg/service/llm"
)

// LLM holds CLI flags for model provider credentials
type LLM struct {
	geminiProject   string
	geminiLocation  string
	openaiAPIKey    string
	anthropicAPIKey string
}

// Flags returns CLI flags for LLM provider configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini models",
			Category:    "LLM",
			Sources:     cli.EnvVars("DYNAGENT_GEMINI_PROJECT"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini models",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("DYNAGENT_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key for GPT models",
			Category:    "LLM",
			Sources:     cli.EnvVars("DYNAGENT_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key for Claude models",
			Category:    "LLM",
			Sources:     cli.EnvVars("DYNAGENT_ANTHROPIC_API_KEY"),
			Destination: &l.anthropicAPIKey,
		},
	}
}

// LogAttrs returns log attributes describing which providers are set up
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("gemini", l.geminiProject != ""),
		slog.Bool("openai", l.openaiAPIKey != ""),
		slog.Bool("anthropic", l.anthropicAPIKey != ""),
	}
}

// Configure builds a model factory from the configured credentials
func (l *LLM) Configure() *llm.Factory {
	var opts []llm.Option
	if l.geminiProject != "" {
		opts = append(opts, llm.WithGemini(l.geminiProject, l.geminiLocation))
	}
	if l.openaiAPIKey != "" {
		opts = append(opts, llm.WithOpenAI(l.openaiAPIKey))
	}
	if l.anthropicAPIKey != "" {
		opts = append(opts, llm.WithAnthropic(l.anthropicAPIKey))
	}
	return llm.New(opts...)
}
