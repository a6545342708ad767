package memory

import (
	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
)

// Repository is an in-memory implementation of interfaces.Repository,
// used for development mode and tests.
type Repository struct {
	memory *memoryRecordRepository
	chunk  *chunkRepository
}

var _ interfaces.Repository = &Repository{}

func New() *Repository {
	return &Repository{
		memory: newMemoryRecordRepository(),
		chunk:  newChunkRepository(),
	}
}

func (r *Repository) Memory() interfaces.MemoryRepository {
	return r.memory
}

func (r *Repository) Chunk() interfaces.ChunkRepository {
	return r.chunk
}

func (r *Repository) Close() error {
	return nil
}
