package interfaces

import (
	"context"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// Repository aggregates the persistence interfaces
type Repository interface {
	Memory() MemoryRepository
	Chunk() ChunkRepository
	Close() error
}

// MemoryRepository persists conversation-scoped memory records.
// A scope is one (user, conversation) pair; List returns records in
// insertion order.
type MemoryRepository interface {
	// Append stores a new record in the given scope
	Append(ctx context.Context, userID types.UserID, conversationID types.ConversationID, rec *model.MemoryRecord) (*model.MemoryRecord, error)

	// List retrieves all records in the given scope, oldest first
	List(ctx context.Context, userID types.UserID, conversationID types.ConversationID) ([]*model.MemoryRecord, error)
}

// ChunkRepository persists indexed knowledge chunks for retrieval
type ChunkRepository interface {
	// Put stores a chunk for the given agent
	Put(ctx context.Context, agentID types.AgentID, chunk *model.KnowledgeChunk) (*model.KnowledgeChunk, error)

	// DeleteBySource removes all chunks indexed from the named knowledge entry
	DeleteBySource(ctx context.Context, agentID types.AgentID, source string) error

	// FindByEmbedding performs vector similarity search using cosine distance.
	// Returns up to limit chunks most similar to the given embedding.
	FindByEmbedding(ctx context.Context, agentID types.AgentID, embedding []float32, limit int) ([]*model.KnowledgeChunk, error)
}
