package loop

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/utils/progress"
)

//go:embed prompt/conversation.md
var conversationPromptTmpl string

var conversationPrompt = template.Must(template.New("conversation").Parse(conversationPromptTmpl))

// ModelFactory resolves a model identifier to an LLM client. Settings are
// the agent's model settings; the factory decides what applies at client
// construction time.
type ModelFactory interface {
	Client(ctx context.Context, modelID string, settings map[string]any) (gollem.LLMClient, error)
}

// Service drives the agentic loop through gollem. It implements
// interfaces.AgentLoop: declared tool schemas become gollem tools whose
// execution goes through the dispatch callback, and the conversation
// transcript (tool exchanges included) is recorded across iterations.
type Service struct {
	models ModelFactory
}

var _ interfaces.AgentLoop = &Service{}

// New creates the gollem-backed agentic loop
func New(models ModelFactory) (*Service, error) {
	if models == nil {
		return nil, goerr.New("model factory is required")
	}
	return &Service{models: models}, nil
}

// Run executes the loop until the model produces a final response or the
// iteration ceiling is reached. A returned error is fatal to the turn.
func (s *Service) Run(ctx context.Context, req *interfaces.LoopRequest) (*interfaces.LoopResult, error) {
	if req.Execute == nil {
		return nil, goerr.New("tool callback is required")
	}

	client, err := s.models.Client(ctx, req.Model, req.ModelSettings)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve LLM client",
			goerr.V("model", req.Model),
		)
	}

	systemPrompt, history, input := splitMessages(req.Messages)
	if len(history) > 0 {
		rendered, err := renderConversation(history)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to render conversation context")
		}
		if systemPrompt == "" {
			systemPrompt = rendered
		} else {
			systemPrompt = systemPrompt + "\n\n" + rendered
		}
	}

	rec := newTranscript(req.Messages)

	var opts []gollem.Option
	if systemPrompt != "" {
		opts = append(opts, gollem.WithSystemPrompt(systemPrompt))
	}
	if req.MaxIterations > 0 {
		opts = append(opts, gollem.WithLoopLimit(req.MaxIterations))
	}
	if req.Tools != nil {
		tools := make([]gollem.Tool, 0, len(req.Tools))
		for _, schema := range req.Tools {
			tools = append(tools, &callbackTool{
				schema:     schema,
				execute:    req.Execute,
				transcript: rec,
			})
		}
		opts = append(opts, gollem.WithTools(tools...))
	}
	opts = append(opts, gollem.WithToolMiddleware(
		func(next gollem.ToolHandler) gollem.ToolHandler {
			return func(ctx context.Context, treq *gollem.ToolExecRequest) (*gollem.ToolExecResponse, error) {
				progress.Report(ctx, treq.Tool.Name)
				return next(ctx, treq)
			}
		},
	))

	agent := gollem.New(client, opts...)

	resp, err := agent.Execute(ctx, gollem.Text(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to execute agent",
			goerr.V("model", req.Model),
		)
	}

	final := strings.Join(resp.Texts, "\n")
	return &interfaces.LoopResult{
		FinalContent: final,
		Messages:     rec.finalize(final),
	}, nil
}

// splitMessages separates the assembled message list into the system
// prompt, prior conversation, and the latest user input. gollem takes one
// input per execution; earlier messages are folded into the system prompt
// as conversation context.
func splitMessages(messages []model.Message) (systemPrompt string, history []model.Message, input string) {
	inputIdx := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			inputIdx = i
			break
		}
	}

	for i, msg := range messages {
		if msg.Role == model.RoleSystem && systemPrompt == "" {
			systemPrompt = msg.Content
			continue
		}
		if i == inputIdx {
			input = msg.Content
			continue
		}
		if msg.Role != model.RoleSystem {
			history = append(history, msg)
		}
	}
	return systemPrompt, history, input
}

func renderConversation(history []model.Message) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Messages []model.Message
	}{Messages: history}
	if err := conversationPrompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
