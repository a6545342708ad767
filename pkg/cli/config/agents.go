package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/catalpa-lab/dynagent/pkg/service/agents"
)

// Agents holds CLI flags for the agent definition store
type Agents struct {
	path string
}

// Flags returns CLI flags for agent definition configuration
func (a *Agents) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "agents",
			Usage:       "Path to the TOML agent definition file",
			Required:    true,
			Sources:     cli.EnvVars("DYNAGENT_AGENTS"),
			Destination: &a.path,
		},
	}
}

// Path returns the agent definition file path
func (a *Agents) Path() string {
	return a.path
}

// Configure validates the definition file and returns a store over it
func (a *Agents) Configure() (*agents.FileStore, error) {
	if _, err := agents.LoadDefinitions(a.path); err != nil {
		return nil, goerr.Wrap(err, "failed to load agent definitions", goerr.V("path", a.path))
	}
	return agents.NewFileStore(a.path), nil
}
