package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
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

func TestCreateProject_AndProjectForJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.CreateProject(ctx, RemoteProject{
		ProjectID:     "12345",
		ProviderID:    "provider-1",
		JobID:         "job-1",
		RequiredByUTC: time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC),
		ReviewEnabled: true,
		Category:      3,
		QuoteRequired: false,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	p, err := s.ProjectForJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("ProjectForJob: %v", err)
	}
	if p.ProjectID != "12345" || p.Category != 3 || !p.ReviewEnabled {
		t.Fatalf("project round trip: got %+v", p)
	}
}

func TestProjectForJob_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ProjectForJob(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMapping_AndMappingForItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMapping(ctx, RemoteMapping{
		JobID:     "job-1",
		ItemID:    "item-1",
		DataKey:   DataKey,
		ProjectID: "12345",
	})
	if err != nil {
		t.Fatalf("CreateMapping: %v", err)
	}
	if id == "" {
		t.Fatal("CreateMapping returned empty id")
	}

	m, err := s.MappingForItem(ctx, "job-1", "item-1")
	if err != nil {
		t.Fatalf("MappingForItem: %v", err)
	}
	if m.ID != id || m.ProjectID != "12345" || m.DataKey != DataKey {
		t.Fatalf("mapping round trip: got %+v", m)
	}
	if len(m.Files) != 0 {
		t.Fatalf("new mapping has files: %v", m.Files)
	}
}

func TestAddFile_StartsAtVersionOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMapping(ctx, RemoteMapping{
		JobID: "job-1", ItemID: "item-1", DataKey: DataKey, ProjectID: "12345",
	})
	if err != nil {
		t.Fatalf("CreateMapping: %v", err)
	}
	if err := s.AddFile(ctx, id, "file-7"); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	m, err := s.MappingForItem(ctx, "job-1", "item-1")
	if err != nil {
		t.Fatalf("MappingForItem: %v", err)
	}
	version, ok := m.HasFile("file-7")
	if !ok {
		t.Fatalf("mapping does not hold file-7: %+v", m)
	}
	if version != 1 {
		t.Fatalf("initial file version: got %d, want 1", version)
	}
}

func TestSetFileVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMapping(ctx, RemoteMapping{
		JobID: "job-1", ItemID: "item-1", DataKey: DataKey, ProjectID: "12345",
	})
	if err != nil {
		t.Fatalf("CreateMapping: %v", err)
	}
	if err := s.AddFile(ctx, id, "file-7"); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	if err := s.SetFileVersion(ctx, id, "file-7", 2); err != nil {
		t.Fatalf("SetFileVersion: %v", err)
	}
	m, err := s.MappingForItem(ctx, "job-1", "item-1")
	if err != nil {
		t.Fatalf("MappingForItem: %v", err)
	}
	if version, _ := m.HasFile("file-7"); version != 2 {
		t.Fatalf("bumped version: got %d, want 2", version)
	}

	if err := s.SetFileVersion(ctx, id, "missing-file", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown file, got %v", err)
	}
}

func TestListMappings_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, m := range []RemoteMapping{
		{JobID: "job-1", ItemID: "item-1", DataKey: DataKey, ProjectID: "100"},
		{JobID: "job-1", ItemID: "item-2", DataKey: DataKey, ProjectID: "100"},
		{JobID: "job-2", ItemID: "item-3", DataKey: DataKey, ProjectID: "200"},
	} {
		if _, err := s.CreateMapping(ctx, m); err != nil {
			t.Fatalf("CreateMapping %s: %v", m.ItemID, err)
		}
	}

	jobID := "job-1"
	got, err := s.ListMappings(ctx, MappingFilter{JobID: &jobID})
	if err != nil {
		t.Fatalf("ListMappings by job: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("mappings for job-1: got %d, want 2", len(got))
	}

	projectID := "200"
	got, err = s.ListMappings(ctx, MappingFilter{ProjectID: &projectID})
	if err != nil {
		t.Fatalf("ListMappings by project: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "item-3" {
		t.Fatalf("mappings for project 200: got %+v", got)
	}

	got, err = s.ListMappings(ctx, MappingFilter{})
	if err != nil {
		t.Fatalf("ListMappings unfiltered: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("all mappings: got %d, want 3", len(got))
	}
}

func TestDeleteJobMappings_RemovesProjectAndMappings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateProject(ctx, RemoteProject{
		ProjectID: "100", ProviderID: "provider-1", JobID: "job-1",
		RequiredByUTC: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	id, err := s.CreateMapping(ctx, RemoteMapping{
		JobID: "job-1", ItemID: "item-1", DataKey: DataKey, ProjectID: "100",
	})
	if err != nil {
		t.Fatalf("CreateMapping: %v", err)
	}
	if err := s.AddFile(ctx, id, "file-1"); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	if err := s.DeleteJobMappings(ctx, "job-1"); err != nil {
		t.Fatalf("DeleteJobMappings: %v", err)
	}

	if _, err := s.ProjectForJob(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("project survived rollback: %v", err)
	}
	jobID := "job-1"
	got, err := s.ListMappings(ctx, MappingFilter{JobID: &jobID})
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("mappings survived rollback: %+v", got)
	}
}

func TestDeleteProjectMappings_LeavesOtherProjectsAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []RemoteProject{
		{ProjectID: "100", ProviderID: "provider-1", JobID: "job-1", RequiredByUTC: time.Now().UTC()},
		{ProjectID: "200", ProviderID: "provider-1", JobID: "job-1", RequiredByUTC: time.Now().UTC()},
	} {
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject %s: %v", p.ProjectID, err)
		}
	}
	for _, m := range []RemoteMapping{
		{JobID: "job-1", ItemID: "item-1", DataKey: DataKey, ProjectID: "100"},
		{JobID: "job-1", ItemID: "item-2", DataKey: DataKey, ProjectID: "200"},
	} {
		if _, err := s.CreateMapping(ctx, m); err != nil {
			t.Fatalf("CreateMapping %s: %v", m.ItemID, err)
		}
	}

	if err := s.DeleteProjectMappings(ctx, "100"); err != nil {
		t.Fatalf("DeleteProjectMappings: %v", err)
	}

	jobID := "job-1"
	got, err := s.ListMappings(ctx, MappingFilter{JobID: &jobID})
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(got) != 1 || got[0].ProjectID != "200" {
		t.Fatalf("expected only project 200's mapping to survive: %+v", got)
	}
}
