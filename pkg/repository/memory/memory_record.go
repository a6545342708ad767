package memory

import (
	"context"
	"sync"
	"time"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// scopeKey is a composite key for memory records (user + conversation)
type scopeKey struct {
	userID         types.UserID
	conversationID types.ConversationID
}

type memoryRecordRepository struct {
	mu      sync.RWMutex
	records map[scopeKey][]*model.MemoryRecord
}

func newMemoryRecordRepository() *memoryRecordRepository {
	return &memoryRecordRepository{
		records: make(map[scopeKey][]*model.MemoryRecord),
	}
}

func copyMemoryRecord(rec *model.MemoryRecord) *model.MemoryRecord {
	copied := *rec
	return &copied
}

func (r *memoryRecordRepository) Append(ctx context.Context, userID types.UserID, conversationID types.ConversationID, rec *model.MemoryRecord) (*model.MemoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyMemoryRecord(rec)
	if created.ID == "" {
		created.ID = types.NewMemoryID()
	}
	created.CreatedAt = time.Now().UTC()

	key := scopeKey{userID: userID, conversationID: conversationID}
	r.records[key] = append(r.records[key], created)

	return copyMemoryRecord(created), nil
}

func (r *memoryRecordRepository) List(ctx context.Context, userID types.UserID, conversationID types.ConversationID) ([]*model.MemoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := scopeKey{userID: userID, conversationID: conversationID}
	stored := r.records[key]

	result := make([]*model.MemoryRecord, len(stored))
	for i, rec := range stored {
		result[i] = copyMemoryRecord(rec)
	}
	return result, nil
}
