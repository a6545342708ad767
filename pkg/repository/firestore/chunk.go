package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// chunkDoc is the Firestore document representation of
// model.KnowledgeChunk. Embedding is stored as firestore.Vector32 so that
// FindNearest vector search works.
type chunkDoc struct {
	ID        types.ChunkID      `firestore:"ID"`
	AgentID   types.AgentID      `firestore:"AgentID"`
	Source    string             `firestore:"Source"`
	Content   string             `firestore:"Content"`
	Embedding firestore.Vector32 `firestore:"Embedding,omitempty"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toChunkDoc(c *model.KnowledgeChunk) *chunkDoc {
	doc := &chunkDoc{
		ID:        c.ID,
		AgentID:   c.AgentID,
		Source:    c.Source,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if len(c.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(c.Embedding)
	}
	return doc
}

func fromChunkDoc(d *chunkDoc) *model.KnowledgeChunk {
	c := &model.KnowledgeChunk{
		ID:        d.ID,
		AgentID:   d.AgentID,
		Source:    d.Source,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		c.Embedding = []float32(d.Embedding)
	}
	return c
}

type chunkRepository struct {
	client *firestore.Client
}

func newChunkRepository(client *firestore.Client) *chunkRepository {
	return &chunkRepository{client: client}
}

// chunksCollection returns the subcollection path:
// agents/{agentID}/chunks
func (r *chunkRepository) chunksCollection(agentID types.AgentID) *firestore.CollectionRef {
	return r.client.Collection("agents").Doc(string(agentID)).Collection("chunks")
}

func (r *chunkRepository) Put(ctx context.Context, agentID types.AgentID, chunk *model.KnowledgeChunk) (*model.KnowledgeChunk, error) {
	created := *chunk
	if created.ID == "" {
		created.ID = types.NewChunkID()
	}
	created.AgentID = agentID
	created.CreatedAt = time.Now().UTC()

	docRef := r.chunksCollection(agentID).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toChunkDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to put knowledge chunk",
			goerr.V("agentID", agentID),
			goerr.V("source", chunk.Source),
		)
	}

	return &created, nil
}

func (r *chunkRepository) DeleteBySource(ctx context.Context, agentID types.AgentID, source string) error {
	iter := r.chunksCollection(agentID).Where("Source", "==", source).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate chunks for deletion",
				goerr.V("agentID", agentID),
				goerr.V("source", source),
			)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete chunk",
				goerr.V("agentID", agentID),
				goerr.V("chunkID", doc.Ref.ID),
			)
		}
	}

	return nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, agentID types.AgentID, embedding []float32, limit int) ([]*model.KnowledgeChunk, error) {
	vq := r.chunksCollection(agentID).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, nil)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	chunks := make([]*model.KnowledgeChunk, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				return nil, goerr.Wrap(err, "vector index is not ready, run `dynagent migrate` first",
					goerr.V("agentID", agentID),
				)
			}
			return nil, goerr.Wrap(err, "failed to iterate vector search results",
				goerr.V("agentID", agentID),
			)
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk from vector search")
		}
		chunks = append(chunks, fromChunkDoc(&d))
	}

	return chunks, nil
}
