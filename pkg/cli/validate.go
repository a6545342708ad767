package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/catalpa-lab/dynagent/pkg/service/agents"
)

func cmdValidate() *cli.Command {
	var path string

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate an agent definition file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "agents",
				Usage:       "Path to the TOML agent definition file",
				Required:    true,
				Sources:     cli.EnvVars("DYNAGENT_AGENTS"),
				Destination: &path,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			defs, err := agents.LoadDefinitions(path)
			if err != nil {
				return err
			}

			fmt.Printf("OK: %d agent(s) defined\n", len(defs.Agents))
			for _, a := range defs.Agents {
				fmt.Printf("  - %s (knowledge: %d, tools: %d)\n",
					a.ID, len(a.Knowledge), len(a.Tools))
			}
			return nil
		},
	}
}
