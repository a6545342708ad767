package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// memoryRecordDoc is the Firestore document representation of
// model.MemoryRecord.
type memoryRecordDoc struct {
	ID        types.MemoryID     `firestore:"ID"`
	Key       string             `firestore:"Key"`
	Value     string             `firestore:"Value"`
	Source    types.MemorySource `firestore:"Source"`
	CreatedAt time.Time          `firestore:"CreatedAt"`
}

func toMemoryRecordDoc(rec *model.MemoryRecord) *memoryRecordDoc {
	return &memoryRecordDoc{
		ID:        rec.ID,
		Key:       rec.Key,
		Value:     rec.Value,
		Source:    rec.Source,
		CreatedAt: rec.CreatedAt,
	}
}

func fromMemoryRecordDoc(d *memoryRecordDoc) *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:        d.ID,
		Key:       d.Key,
		Value:     d.Value,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
	}
}

type memoryRecordRepository struct {
	client *firestore.Client
}

func newMemoryRecordRepository(client *firestore.Client) *memoryRecordRepository {
	return &memoryRecordRepository{client: client}
}

// recordsCollection returns the subcollection path:
// users/{userID}/conversations/{conversationID}/memories
func (r *memoryRecordRepository) recordsCollection(userID types.UserID, conversationID types.ConversationID) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(string(userID)).
		Collection("conversations").Doc(string(conversationID)).
		Collection("memories")
}

func (r *memoryRecordRepository) Append(ctx context.Context, userID types.UserID, conversationID types.ConversationID, rec *model.MemoryRecord) (*model.MemoryRecord, error) {
	created := *rec
	if created.ID == "" {
		// UUIDv7 ids are time-ordered, so the document id doubles as a
		// stable tiebreak for CreatedAt collisions.
		created.ID = types.NewMemoryID()
	}
	created.CreatedAt = time.Now().UTC()

	docRef := r.recordsCollection(userID, conversationID).Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toMemoryRecordDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to append memory record",
			goerr.V("userID", userID),
			goerr.V("conversationID", conversationID),
		)
	}

	return &created, nil
}

func (r *memoryRecordRepository) List(ctx context.Context, userID types.UserID, conversationID types.ConversationID) ([]*model.MemoryRecord, error) {
	query := r.recordsCollection(userID, conversationID).
		OrderBy("CreatedAt", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []*model.MemoryRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory records",
				goerr.V("userID", userID),
				goerr.V("conversationID", conversationID),
			)
		}

		var d memoryRecordDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory record")
		}
		records = append(records, fromMemoryRecordDoc(&d))
	}

	return records, nil
}
