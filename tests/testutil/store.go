package testutil

import (
	"context"
	"testing"

	"github.com/nhle/translation-connector/internal/jobs"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestJobStore creates a job store backed by a fresh in-memory database.
func NewTestJobStore(t *testing.T) (*store.SQLiteStore, *jobs.SQLiteJobStore) {
	t.Helper()

	s := NewTestStore(t)
	return s, jobs.NewSQLiteJobStore(s.DB())
}

// SeedJob inserts a job with two translatable items and returns it re-read
// from the store so callers see the generated ids.
func SeedJob(t *testing.T, js *jobs.SQLiteJobStore, providerID string) *model.Job {
	t.Helper()

	job := &model.Job{
		ProviderID:     providerID,
		Label:          "Test job",
		SourceLanguage: "en-GB",
		TargetLanguage: "fr-FR",
		State:          model.JobStateUnprocessed,
		Items: []model.JobItem{
			{Label: "First item", Data: map[string]string{
				"title][0][value": "Hello",
				"body][0][value":  "Hello world",
			}},
			{Label: "Second item", Data: map[string]string{
				"title][0][value": "Goodbye",
			}},
		},
	}
	if err := js.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	seeded, err := js.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	return seeded
}
