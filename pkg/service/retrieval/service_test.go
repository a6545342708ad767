package retrieval_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/repository/memory"
	"github.com/catalpa-lab/dynagent/pkg/service/retrieval"
)

// embeddingClient is a gollem client stub whose embeddings point along a
// fixed axis per known phrase, making similarity ranking deterministic.
type embeddingClient struct {
	axes map[string]int
}

func (c *embeddingClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *embeddingClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	result := make([][]float64, len(input))
	for i, text := range input {
		vec := make([]float64, dimension)
		axis := 0
		for phrase, a := range c.axes {
			if strings.Contains(text, phrase) {
				axis = a
				break
			}
		}
		vec[axis] = 1
		result[i] = vec
	}
	return result, nil
}

func TestService_IndexAndRetrieve(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	client := &embeddingClient{axes: map[string]int{
		"shipping": 1,
		"refund":   2,
	}}

	svc, err := retrieval.New(repo, client)
	gt.NoError(t, err).Required()

	count, err := svc.Index(ctx, "support-bot", "faq",
		"Orders ship within 2 days. Track shipping on the orders page.\n\nRefund requests must arrive within 30 days. A refund takes a week to process.")
	gt.NoError(t, err).Required()
	gt.Number(t, count).Equal(1) // short paragraphs merge into one chunk

	text, err := svc.RetrieveForAgent(ctx, "support-bot", "how does shipping work?", nil)
	gt.NoError(t, err).Required()
	gt.String(t, text).Contains("## Retrieved Knowledge")
	gt.String(t, text).Contains("### faq")
	gt.String(t, text).Contains("Orders ship within 2 days")
}

func TestService_Retrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty index yields empty context", func(t *testing.T) {
		svc, err := retrieval.New(memory.New(), &embeddingClient{})
		gt.NoError(t, err).Required()

		text, err := svc.RetrieveForAgent(ctx, "support-bot", "anything", nil)
		gt.NoError(t, err).Required()
		gt.Value(t, text).Equal("")
	})

	t.Run("top_k from rag config limits results", func(t *testing.T) {
		repo := memory.New()
		client := &embeddingClient{axes: map[string]int{"shipping": 1}}
		svc, err := retrieval.New(repo, client)
		gt.NoError(t, err).Required()

		for i := 0; i < 4; i++ {
			chunk := &model.KnowledgeChunk{
				AgentID:   "support-bot",
				Source:    "faq",
				Content:   "chunk about shipping",
				Embedding: axisVec(1),
			}
			_, err := repo.Chunk().Put(ctx, "support-bot", chunk)
			gt.NoError(t, err).Required()
		}

		text, err := svc.RetrieveForAgent(ctx, "support-bot", "shipping?", map[string]any{"top_k": 2})
		gt.NoError(t, err).Required()
		gt.Number(t, strings.Count(text, "### faq")).Equal(2)
	})
}

func TestService_ReindexReplacesSource(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	client := &embeddingClient{axes: map[string]int{"shipping": 1}}
	svc, err := retrieval.New(repo, client)
	gt.NoError(t, err).Required()

	_, err = svc.Index(ctx, "support-bot", "faq", "Old shipping policy.")
	gt.NoError(t, err).Required()
	_, err = svc.Index(ctx, "support-bot", "faq", "New shipping policy.")
	gt.NoError(t, err).Required()

	text, err := svc.RetrieveForAgent(ctx, "support-bot", "shipping?", nil)
	gt.NoError(t, err).Required()
	gt.String(t, text).Contains("New shipping policy.")
	gt.Value(t, strings.Contains(text, "Old shipping policy.")).Equal(false)
}

func axisVec(axis int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[axis] = 1
	return v
}

func TestSplitContent(t *testing.T) {
	t.Run("merges short paragraphs", func(t *testing.T) {
		chunks := retrieval.SplitContent("first paragraph\n\nsecond paragraph")
		gt.Array(t, chunks).Length(1).Required()
		gt.Value(t, chunks[0]).Equal("first paragraph\n\nsecond paragraph")
	})

	t.Run("splits when the size bound is exceeded", func(t *testing.T) {
		long := strings.Repeat("x", 1100)
		chunks := retrieval.SplitContent(long + "\n\n" + "short tail")
		gt.Array(t, chunks).Length(2).Required()
		gt.Value(t, chunks[1]).Equal("short tail")
	})

	t.Run("drops blank paragraphs", func(t *testing.T) {
		chunks := retrieval.SplitContent("a\n\n\n\n  \n\nb")
		gt.Array(t, chunks).Length(1).Required()
		gt.Value(t, chunks[0]).Equal("a\n\nb")
	})

	t.Run("empty content yields no chunks", func(t *testing.T) {
		gt.Array(t, retrieval.SplitContent("")).Length(0)
	})
}

func TestExtractInt(t *testing.T) {
	v, ok := retrieval.ExtractInt(map[string]any{"top_k": 3}, "top_k")
	gt.Bool(t, ok).True()
	gt.Number(t, v).Equal(3)

	v, ok = retrieval.ExtractInt(map[string]any{"top_k": float64(7)}, "top_k")
	gt.Bool(t, ok).True()
	gt.Number(t, v).Equal(7)

	v, ok = retrieval.ExtractInt(map[string]any{"top_k": int64(5)}, "top_k")
	gt.Bool(t, ok).True()
	gt.Number(t, v).Equal(5)

	_, ok = retrieval.ExtractInt(nil, "top_k")
	gt.Bool(t, ok).False()

	_, ok = retrieval.ExtractInt(map[string]any{"top_k": "many"}, "top_k")
	gt.Bool(t, ok).False()
}
