package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/repository/firestore"
	"github.com/catalpa-lab/dynagent/pkg/repository/memory"
)

func runMemoryRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	// Fresh scopes per test run so Firestore state does not bleed between runs
	newScope := func() (types.UserID, types.ConversationID) {
		return types.UserID("u-" + uuid.NewString()), types.ConversationID("c-" + uuid.NewString())
	}

	t.Run("Append assigns ID and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID, convID := newScope()

		created, err := repo.Memory().Append(ctx, userID, convID, &model.MemoryRecord{
			Key:    "user_name",
			Value:  "Alice",
			Source: types.MemorySourceAgent,
		})
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(types.MemoryID(""))
		gt.Value(t, created.Key).Equal("user_name")
		gt.Value(t, created.Value).Equal("Alice")
		gt.Bool(t, created.CreatedAt.IsZero()).False()
	})

	t.Run("List returns records oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID, convID := newScope()

		for _, kv := range [][2]string{{"a", "1"}, {"b", "2"}, {"c", "3"}} {
			_, err := repo.Memory().Append(ctx, userID, convID, &model.MemoryRecord{
				Key: kv[0], Value: kv[1], Source: types.MemorySourceAgent,
			})
			gt.NoError(t, err).Required()
		}

		records, err := repo.Memory().List(ctx, userID, convID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(3).Required()
		gt.Value(t, records[0].Key).Equal("a")
		gt.Value(t, records[1].Key).Equal("b")
		gt.Value(t, records[2].Key).Equal("c")
	})

	t.Run("scopes are isolated", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID, convID := newScope()
		otherUser, otherConv := newScope()

		_, err := repo.Memory().Append(ctx, userID, convID, &model.MemoryRecord{
			Key: "k", Value: "v", Source: types.MemorySourceAgent,
		})
		gt.NoError(t, err).Required()

		// Same user, different conversation
		records, err := repo.Memory().List(ctx, userID, otherConv)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(0)

		// Different user, same conversation id
		records, err = repo.Memory().List(ctx, otherUser, convID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(0)
	})

	t.Run("duplicate keys are appended, not replaced", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		userID, convID := newScope()

		_, err := repo.Memory().Append(ctx, userID, convID, &model.MemoryRecord{
			Key: "goal", Value: "v1", Source: types.MemorySourceAgent,
		})
		gt.NoError(t, err).Required()
		_, err = repo.Memory().Append(ctx, userID, convID, &model.MemoryRecord{
			Key: "goal", Value: "v2", Source: types.MemorySourceAgent,
		})
		gt.NoError(t, err).Required()

		records, err := repo.Memory().List(ctx, userID, convID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(2).Required()
		gt.Value(t, records[0].Value).Equal("v1")
		gt.Value(t, records[1].Value).Equal("v2")
	})
}

func TestMemoryRepository_Memory(t *testing.T) {
	runMemoryRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestMemoryRepository_Firestore(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	runMemoryRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		repo, err := firestore.New(context.Background(), projectID, databaseID)
		gt.NoError(t, err).Required()
		return repo
	})
}
