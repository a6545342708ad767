package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

type chunkRepository struct {
	mu     sync.RWMutex
	chunks map[types.AgentID][]*model.KnowledgeChunk
}

func newChunkRepository() *chunkRepository {
	return &chunkRepository{
		chunks: make(map[types.AgentID][]*model.KnowledgeChunk),
	}
}

func copyChunk(c *model.KnowledgeChunk) *model.KnowledgeChunk {
	copied := *c
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return &copied
}

func (r *chunkRepository) Put(ctx context.Context, agentID types.AgentID, chunk *model.KnowledgeChunk) (*model.KnowledgeChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyChunk(chunk)
	if created.ID == "" {
		created.ID = types.NewChunkID()
	}
	created.AgentID = agentID
	created.CreatedAt = time.Now().UTC()

	r.chunks[agentID] = append(r.chunks[agentID], created)
	return copyChunk(created), nil
}

func (r *chunkRepository) DeleteBySource(ctx context.Context, agentID types.AgentID, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.chunks[agentID]
	kept := stored[:0]
	for _, c := range stored {
		if c.Source != source {
			kept = append(kept, c)
		}
	}
	r.chunks[agentID] = kept
	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, agentID types.AgentID, embedding []float32, limit int) ([]*model.KnowledgeChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		chunk *model.KnowledgeChunk
		score float64
	}

	var candidates []scored
	for _, c := range r.chunks[agentID] {
		if len(c.Embedding) == 0 {
			continue
		}
		s := cosineSimilarity(embedding, c.Embedding)
		candidates = append(candidates, scored{chunk: copyChunk(c), score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.KnowledgeChunk, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].chunk
	}
	return result, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
