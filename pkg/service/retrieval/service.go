package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

const defaultTopK = 5

// maxChunkSize bounds paragraph merging when indexing knowledge content
const maxChunkSize = 1200

// Service retrieves knowledge context by embedding similarity over the
// chunk store. It is the reference implementation of
// interfaces.Retriever; the orchestrator only sees the interface.
type Service struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
	topK      int
}

var _ interfaces.Retriever = &Service{}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithDefaultTopK overrides the default result count
func WithDefaultTopK(topK int) Option {
	return func(s *Service) {
		s.topK = topK
	}
}

// New creates a retrieval service over the given chunk repository and
// embedding client.
func New(repo interfaces.Repository, llmClient gollem.LLMClient, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	s := &Service{
		repo:      repo,
		llmClient: llmClient,
		topK:      defaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RetrieveForAgent searches the agent's indexed chunks for the query and
// formats the matches as a prompt block. Returns empty text when nothing
// is indexed for the agent.
func (s *Service) RetrieveForAgent(ctx context.Context, agentID types.AgentID, query string, ragConfig map[string]any) (string, error) {
	topK := s.topK
	if v, ok := extractInt(ragConfig, "top_k"); ok && v > 0 {
		topK = v
	}

	embedding, err := s.generateEmbedding(ctx, query)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate embedding for query")
	}

	chunks, err := s.repo.Chunk().FindByEmbedding(ctx, agentID, embedding, topK)
	if err != nil {
		return "", goerr.Wrap(err, "failed to search chunks by embedding",
			goerr.V("agentID", agentID),
			goerr.V("topK", topK),
		)
	}
	if len(chunks) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Retrieved Knowledge\n")
	for _, chunk := range chunks {
		fmt.Fprintf(&sb, "\n### %s\n%s\n", chunk.Source, chunk.Content)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// Index replaces the indexed chunks of one knowledge entry: the entry
// content is split into paragraph-bounded chunks, embedded, and stored.
// Returns the number of chunks written.
func (s *Service) Index(ctx context.Context, agentID types.AgentID, source, content string) (int, error) {
	if err := s.repo.Chunk().DeleteBySource(ctx, agentID, source); err != nil {
		return 0, goerr.Wrap(err, "failed to delete stale chunks",
			goerr.V("agentID", agentID),
			goerr.V("source", source),
		)
	}

	parts := splitContent(content)
	for _, part := range parts {
		embedding, err := s.generateEmbedding(ctx, part)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to generate embedding for chunk",
				goerr.V("source", source),
			)
		}

		chunk := &model.KnowledgeChunk{
			AgentID:   agentID,
			Source:    source,
			Content:   part,
			Embedding: embedding,
		}
		if _, err := s.repo.Chunk().Put(ctx, agentID, chunk); err != nil {
			return 0, goerr.Wrap(err, "failed to store chunk",
				goerr.V("agentID", agentID),
				goerr.V("source", source),
			)
		}
	}

	return len(parts), nil
}

// generateEmbedding generates a float32 embedding from text
func (s *Service) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("embedding generation returned empty result")
	}

	embedding64 := embeddings[0]
	embedding32 := make([]float32, len(embedding64))
	for i, v := range embedding64 {
		embedding32[i] = float32(v)
	}
	return embedding32, nil
}

// splitContent splits knowledge content on blank lines and merges
// paragraphs up to maxChunkSize.
func splitContent(content string) []string {
	paragraphs := strings.Split(content, "\n\n")

	var chunks []string
	var current strings.Builder
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(p) > maxChunkSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// extractInt accepts the numeric forms that JSON and TOML decoding
// produce for integer config values.
func extractInt(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
