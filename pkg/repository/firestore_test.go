package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/repository"
	"github.com/m-mizutani/gt"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.NewFirestore(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	return repo
}

func TestFirestorePutAndGetRecord(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	record := testRecord(model.NewRecordID("firestore_test.csv", 1), "Acme", []float32{1, 0, 0})
	gt.NoError(t, repo.PutRecord(ctx, record))

	got, err := repo.GetRecord(ctx, record.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ID, record.ID)
	gt.Equal(t, got.Source, record.Source)
	gt.Equal(t, got.EmbeddingModel, record.EmbeddingModel)
	gt.A(t, got.Embedding).Length(3)
}

func TestFirestoreSearchSimilar(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	gt.NoError(t, repo.PutRecord(ctx, testRecord(model.NewRecordID("firestore_test.csv", 2), "Bolt", []float32{1, 0, 0})))
	gt.NoError(t, repo.PutRecord(ctx, testRecord(model.NewRecordID("firestore_test.csv", 3), "Crux", []float32{0, 1, 0})))

	scored, err := repo.SearchSimilar(ctx, []float32{1, 0, 0}, 1)
	gt.NoError(t, err)
	gt.A(t, scored).Length(1)

	company, _ := scored[0].Record.Field("company")
	gt.Equal(t, company, "Bolt")
	gt.Number(t, scored[0].Score).Greater(0.9)
}

func TestFirestoreGetMissingRecord(t *testing.T) {
	repo := setupFirestore(t)

	_, err := repo.GetRecord(context.Background(), "ffffffff")
	gt.Error(t, err)
}
