package usecase

import (
	"fmt"
	"strings"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// buildKnowledgeContext concatenates the always-included knowledge entries
// into one prompt block, in config order. Entries without content are
// skipped; authors may pre-stage entries before filling them in.
func buildKnowledgeContext(cfg *model.AgentConfig) string {
	var parts []string
	for _, entry := range cfg.Knowledge {
		if entry.InclusionMode != types.IncludeAlways {
			continue
		}
		if entry.Content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", entry.Name, entry.Content))
	}
	return strings.Join(parts, "\n\n")
}
