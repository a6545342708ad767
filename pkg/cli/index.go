package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/catalpa-lab/dynagent/pkg/cli/config"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/service/retrieval"
	"github.com/catalpa-lab/dynagent/pkg/usecase"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

func cmdIndex() *cli.Command {
	var agentID string
	var agentsCfg config.Agents
	var repoCfg config.Repository
	var llmCfg config.LLM

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Usage:       "Index only this agent (all agents when empty)",
			Destination: &agentID,
		},
	}

	flags = append(flags, agentsCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Embed and index retrieval-mode knowledge entries",
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

			embClient, err := llmCfg.Configure().Client(ctx, usecase.DefaultModel, nil)
			if err != nil {
				return goerr.Wrap(err, "an embedding-capable LLM client is required for indexing")
			}

			svc, err := retrieval.New(repo, embClient)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize retrieval service")
			}

			ids, err := store.AgentIDs()
			if err != nil {
				return err
			}

			for _, id := range ids {
				if agentID != "" && id != types.AgentID(agentID) {
					continue
				}

				cfg, err := store.GetEffectiveConfig(ctx, id)
				if err != nil {
					return err
				}

				for _, entry := range cfg.Knowledge {
					if entry.InclusionMode != types.IncludeRAG {
						continue
					}

					count, err := svc.Index(ctx, id, entry.Name, entry.Content)
					if err != nil {
						return goerr.Wrap(err, "failed to index knowledge entry",
							goerr.V("agentID", id),
							goerr.V("name", entry.Name),
						)
					}
					logging.Default().Info("Indexed knowledge entry",
						"agentID", id, "name", entry.Name, "chunks", count)
				}
			}

			return nil
		},
	}
}
