package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/catalpa-lab/dynagent/pkg/cli/config"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/usecase"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
	"github.com/catalpa-lab/dynagent/pkg/utils/progress"
)

func cmdChat() *cli.Command {
	var agentID string
	var userID string
	var conversationID string
	var modelID string
	var message string
	var agentsCfg config.Agents
	var repoCfg config.Repository
	var llmCfg config.LLM

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Usage:       "Agent ID to chat with (required)",
			Required:    true,
			Sources:     cli.EnvVars("DYNAGENT_AGENT"),
			Destination: &agentID,
		},
		&cli.StringFlag{
			Name:        "user",
			Usage:       "User ID for memory scoping",
			Sources:     cli.EnvVars("DYNAGENT_USER"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "conversation",
			Usage:       "Conversation ID for memory scoping (generated when empty)",
			Destination: &conversationID,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model ID override for this session",
			Sources:     cli.EnvVars("DYNAGENT_MODEL"),
			Destination: &modelID,
		},
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "Run a single turn with this message and exit",
			Destination: &message,
		},
	}

	flags = append(flags, agentsCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Chat with a configured agent",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := agentsCfg.Configure()
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			registry, err := buildRegistry(ctx, store, llmCfg.Configure(), repo)
			if err != nil {
				return err
			}

			runtime, err := registry.Get(types.AgentID(agentID))
			if err != nil {
				return err
			}

			if conversationID == "" {
				conversationID = uuid.NewString()
			}

			toolColor := color.New(color.FgYellow)
			ctx = progress.WithReporter(ctx, func(ctx context.Context, msg string) {
				toolColor.Fprintf(os.Stderr, "⚙ %s\n", msg)
			})

			session := &chatSession{
				runtime:        runtime,
				userID:         userID,
				conversationID: conversationID,
				modelID:        modelID,
			}

			if message != "" {
				return session.turn(ctx, message)
			}

			return session.repl(ctx)
		},
	}
}

// chatSession carries the transcript across turns of an interactive chat
type chatSession struct {
	runtime        *usecase.Runtime
	userID         string
	conversationID string
	modelID        string
	messages       []model.Message
}

func (s *chatSession) turn(ctx context.Context, input string) error {
	turn := &model.TurnContext{
		Messages:       append(s.messages, model.Message{Role: model.RoleUser, Content: input}),
		ConversationID: types.ConversationID(s.conversationID),
	}
	if s.modelID != "" {
		turn.Params = map[string]any{"model": s.modelID}
	}
	if s.userID != "" {
		turn.Metadata = map[string]any{"user_id": s.userID}
	}

	result, err := s.runtime.Run(ctx, turn)
	if err != nil {
		return goerr.Wrap(err, "turn failed", goerr.V("agentID", s.runtime.ID()))
	}

	color.New(color.FgCyan).Printf("%s\n", result.FinalContent)

	// Carry the full transcript, minus the system layer which the next
	// turn re-assembles from fresh context.
	s.messages = s.messages[:0]
	for _, msg := range result.Messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		s.messages = append(s.messages, msg)
	}
	return nil
}

func (s *chatSession) repl(ctx context.Context) error {
	promptColor := color.New(color.FgGreen, color.Bold)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Printf("Chatting with agent %q (conversation %s). Type 'exit' to quit.\n",
		s.runtime.ID(), s.conversationID)

	for {
		promptColor.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		if err := s.turn(ctx, input); err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
