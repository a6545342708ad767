package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/repository/memory"
)

// unitVec builds an embedding pointing along one axis. Cosine similarity
// between such vectors is 1 on the same axis and 0 otherwise, which makes
// ranking assertions exact.
func unitVec(axis int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[axis] = 1
	return v
}

func putChunk(t *testing.T, repo *memory.Repository, agentID types.AgentID, source, content string, embedding []float32) {
	t.Helper()
	_, err := repo.Chunk().Put(context.Background(), agentID, &model.KnowledgeChunk{
		AgentID:   agentID,
		Source:    source,
		Content:   content,
		Embedding: embedding,
	})
	gt.NoError(t, err).Required()
}

func TestChunkRepository(t *testing.T) {
	const agentID = types.AgentID("test-agent")
	ctx := context.Background()

	t.Run("FindByEmbedding ranks by cosine similarity", func(t *testing.T) {
		repo := memory.New()

		putChunk(t, repo, agentID, "docs", "about apples", unitVec(0))
		putChunk(t, repo, agentID, "docs", "about oranges", unitVec(1))
		putChunk(t, repo, agentID, "docs", "about pears", unitVec(2))

		// Query close to axis 1, with a weak axis-2 component
		query := make([]float32, model.EmbeddingDimension)
		query[1] = 1
		query[2] = 0.2

		chunks, err := repo.Chunk().FindByEmbedding(ctx, agentID, query, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, chunks).Length(2).Required()
		gt.Value(t, chunks[0].Content).Equal("about oranges")
		gt.Value(t, chunks[1].Content).Equal("about pears")
	})

	t.Run("FindByEmbedding respects the limit", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 10; i++ {
			putChunk(t, repo, agentID, "docs", "chunk", unitVec(i))
		}

		chunks, err := repo.Chunk().FindByEmbedding(ctx, agentID, unitVec(0), 3)
		gt.NoError(t, err).Required()
		gt.Array(t, chunks).Length(3)
	})

	t.Run("chunks are scoped per agent", func(t *testing.T) {
		repo := memory.New()
		putChunk(t, repo, agentID, "docs", "mine", unitVec(0))
		putChunk(t, repo, "other-agent", "docs", "theirs", unitVec(0))

		chunks, err := repo.Chunk().FindByEmbedding(ctx, agentID, unitVec(0), 10)
		gt.NoError(t, err).Required()
		gt.Array(t, chunks).Length(1).Required()
		gt.Value(t, chunks[0].Content).Equal("mine")
	})

	t.Run("DeleteBySource removes only that source", func(t *testing.T) {
		repo := memory.New()
		putChunk(t, repo, agentID, "faq", "faq chunk", unitVec(0))
		putChunk(t, repo, agentID, "manual", "manual chunk", unitVec(1))

		gt.NoError(t, repo.Chunk().DeleteBySource(ctx, agentID, "faq")).Required()

		chunks, err := repo.Chunk().FindByEmbedding(ctx, agentID, unitVec(0), 10)
		gt.NoError(t, err).Required()
		gt.Array(t, chunks).Length(1).Required()
		gt.Value(t, chunks[0].Source).Equal("manual")
	})

	t.Run("empty store finds nothing", func(t *testing.T) {
		repo := memory.New()
		chunks, err := repo.Chunk().FindByEmbedding(ctx, agentID, unitVec(0), 5)
		gt.NoError(t, err).Required()
		gt.Array(t, chunks).Length(0)
	})
}
