package model

import (
	"time"

	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// KnowledgeChunk is an indexed fragment of a retrieval-mode knowledge
// entry, stored with its embedding for similarity search.
type KnowledgeChunk struct {
	ID        types.ChunkID
	AgentID   types.AgentID
	Source    string // name of the knowledge entry the chunk came from
	Content   string
	Embedding []float32
	CreatedAt time.Time
}
