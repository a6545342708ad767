package types

import "github.com/google/uuid"

// AgentID identifies an agent definition in the authoritative store
type AgentID string

// UserID identifies the user on whose behalf a turn runs
type UserID string

// ConversationID identifies one conversation
type ConversationID string

// RunID identifies a single turn execution
type RunID string

// NewRunID generates a time-ordered RunID
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// MemoryID is a UUID-based identifier for a MemoryRecord
type MemoryID string

// NewMemoryID generates a new MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.Must(uuid.NewV7()).String())
}

// ChunkID is a UUID-based identifier for a KnowledgeChunk
type ChunkID string

// NewChunkID generates a new ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}
