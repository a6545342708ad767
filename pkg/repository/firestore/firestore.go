package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
)

// Repository is the Firestore-backed implementation of
// interfaces.Repository.
type Repository struct {
	client *firestore.Client
	memory *memoryRecordRepository
	chunk  *chunkRepository
}

var _ interfaces.Repository = &Repository{}

func New(ctx context.Context, projectID, databaseID string) (*Repository, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	return &Repository{
		client: client,
		memory: newMemoryRecordRepository(client),
		chunk:  newChunkRepository(client),
	}, nil
}

func (r *Repository) Memory() interfaces.MemoryRepository {
	return r.memory
}

func (r *Repository) Chunk() interfaces.ChunkRepository {
	return r.chunk
}

func (r *Repository) Close() error {
	return r.client.Close()
}
