package model

import (
	"time"

	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// MemoryRecord is one key/value fact stored for a (user, conversation)
// scope. Keys are not unique within the scope; recall returns every record
// in store (insertion) order.
type MemoryRecord struct {
	ID        types.MemoryID
	Key       string
	Value     string
	Source    types.MemorySource
	CreatedAt time.Time
}
