package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nhle/translation-connector/internal/jobs"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
	"github.com/nhle/translation-connector/internal/xliff"
	"github.com/nhle/translation-connector/tests/testutil"
)

func newSubmitter(t *testing.T) (*fakeAPI, *store.SQLiteStore, *jobs.SQLiteJobStore, *Submitter) {
	t.Helper()

	st, js := testutil.NewTestJobStore(t)
	api := newFakeAPI()
	sync := NewSynchronizer(api, st, js, &xliff.XLIFF12{}, testProvider())
	submitter := NewSubmitter(sync, api, st, js, testProvider())
	return api, st, js, submitter
}

func TestRequestTranslation_SubmitsWholeJob(t *testing.T) {
	api, st, js, submitter := newSubmitter(t)
	job := testutil.SeedJob(t, js, "provider-1")
	ctx := context.Background()

	if err := submitter.RequestTranslation(ctx, job.ID); err != nil {
		t.Fatalf("RequestTranslation: %v", err)
	}

	// One remote project for the whole job.
	project, err := st.ProjectForJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ProjectForJob: %v", err)
	}
	if len(api.projectReqs) != 1 {
		t.Fatalf("projects created: got %d, want 1", len(api.projectReqs))
	}

	// Requester identity and workflow ride along as project metadata.
	var workflow string
	for _, entry := range api.projectReqs[0].ProjectMetadata {
		if entry.MetadataKey == "Workflow Options" {
			workflow = entry.MetadataValue
		}
	}
	if workflow != "Localize Only" {
		t.Fatalf("workflow metadata: got %q", workflow)
	}

	// Every item got a mapping holding its uploaded file.
	for i := range job.Items {
		m, err := st.MappingForItem(ctx, job.ID, job.Items[i].ID)
		if err != nil {
			t.Fatalf("MappingForItem %d: %v", i, err)
		}
		if m.ProjectID != project.ProjectID {
			t.Fatalf("item %d mapped to project %s, want %s", i, m.ProjectID, project.ProjectID)
		}
		if len(m.Files) != 1 {
			t.Fatalf("item %d files: got %d, want 1", i, len(m.Files))
		}
	}

	// Confirmation runs for references first, then sources.
	if len(api.confirmCalls) != 2 {
		t.Fatalf("confirmations: got %d, want 2", len(api.confirmCalls))
	}
	if api.confirmCalls[0].State != model.FileStateReferenceAdd ||
		api.confirmCalls[1].State != model.FileStateTranslatableSource {
		t.Fatalf("confirmation order: got %+v", api.confirmCalls)
	}

	reread, err := js.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reread.State != model.JobStateSubmitted {
		t.Fatalf("job state: got %s", reread.State)
	}
}

func TestRequestTranslation_ReviewWorkflowMetadata(t *testing.T) {
	st, js := testutil.NewTestJobStore(t)
	api := newFakeAPI()
	provider := testProvider()
	sync := NewSynchronizer(api, st, js, &xliff.XLIFF12{}, provider)
	submitter := NewSubmitter(sync, api, st, js, provider)

	reviewJob := &model.Job{
		ProviderID:     "provider-1",
		SourceLanguage: "en-GB",
		TargetLanguage: "fr-FR",
		Review:         true,
		Items: []model.JobItem{
			{Label: "Item", Data: map[string]string{"title": "Hello"}},
		},
	}
	if err := js.CreateJob(context.Background(), reviewJob); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if err := submitter.RequestTranslation(context.Background(), reviewJob.ID); err != nil {
		t.Fatalf("RequestTranslation: %v", err)
	}

	last := api.projectReqs[len(api.projectReqs)-1]
	var workflow string
	for _, entry := range last.ProjectMetadata {
		if entry.MetadataKey == "Workflow Options" {
			workflow = entry.MetadataValue
		}
	}
	if workflow != "Localize and Review" {
		t.Fatalf("workflow metadata: got %q", workflow)
	}
}

func TestRequestTranslation_ConfirmMismatchRejectsAndRollsBack(t *testing.T) {
	api, st, js, submitter := newSubmitter(t)
	job := testutil.SeedJob(t, js, "provider-1")
	ctx := context.Background()

	// The vendor confirms only one of the two source files.
	api.confirmCounts[model.FileStateTranslatableSource] = 1

	err := submitter.RequestTranslation(ctx, job.ID)
	if !IsPartialConfirmation(err) {
		t.Fatalf("expected partial confirmation error, got %v", err)
	}

	reread, err := js.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reread.State != model.JobStateRejected {
		t.Fatalf("job state: got %s", reread.State)
	}

	// The failed attempt leaves no mapping rows behind.
	if _, err := st.ProjectForJob(ctx, job.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("project survived rollback: %v", err)
	}
	jobID := job.ID
	mappings, err := st.ListMappings(ctx, store.MappingFilter{JobID: &jobID})
	if err != nil {
		t.Fatalf("ListMappings: %v", err)
	}
	if len(mappings) != 0 {
		t.Fatalf("mappings survived rollback: %+v", mappings)
	}

	// The failure was reported to the vendor at the restart state.
	lastUpdate := api.updateReqs[len(api.updateReqs)-1]
	if lastUpdate.FileState != model.FileStateRestartPoint03 {
		t.Fatalf("error report state: got %s", lastUpdate.FileState)
	}

	messages, err := js.Messages(ctx, job.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	found := false
	for _, m := range messages {
		if m.Type == model.MessageError && strings.Contains(m.Text, "rejected") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no rejection message logged: %+v", messages)
	}
}

func TestRequestTranslation_ProjectCreationFailureRejects(t *testing.T) {
	api, st, js, submitter := newSubmitter(t)
	job := testutil.SeedJob(t, js, "provider-1")
	ctx := context.Background()

	api.createProjectErr = errors.New("service unavailable")

	if err := submitter.RequestTranslation(ctx, job.ID); err == nil {
		t.Fatal("expected error")
	}

	reread, err := js.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reread.State != model.JobStateRejected {
		t.Fatalf("job state: got %s", reread.State)
	}
	// No project id exists yet, so nothing is reported to the vendor.
	if len(api.updateReqs) != 0 {
		t.Fatalf("unexpected vendor updates: %+v", api.updateReqs)
	}
	if _, err := st.ProjectForJob(ctx, job.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unexpected project row: %v", err)
	}
}

func TestRequestTranslation_UnknownCategoryRejects(t *testing.T) {
	api, _, js, submitter := newSubmitter(t)
	ctx := context.Background()

	job := &model.Job{
		ProviderID:     "provider-1",
		SourceLanguage: "en-GB",
		TargetLanguage: "fr-FR",
		Category:       9999,
		Items: []model.JobItem{
			{Label: "Item", Data: map[string]string{"title": "Hello"}},
		},
	}
	if err := js.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if err := submitter.RequestTranslation(ctx, job.ID); err == nil {
		t.Fatal("expected error for unknown specialism category")
	}
	if len(api.projectReqs) != 0 {
		t.Fatalf("project was created despite invalid category: %+v", api.projectReqs)
	}

	reread, err := js.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reread.State != model.JobStateRejected {
		t.Fatalf("job state: got %s", reread.State)
	}
}

func TestRequestItemsTranslation_OneProjectPerItem(t *testing.T) {
	api, st, js, submitter := newSubmitter(t)
	job := testutil.SeedJob(t, js, "provider-1")
	ctx := context.Background()

	// Per-item submissions upload a single file per project, so each
	// confirmation covers exactly one file.
	api.confirmCounts[model.FileStateReferenceAdd] = 1
	api.confirmCounts[model.FileStateTranslatableSource] = 1

	itemIDs := []string{job.Items[0].ID, job.Items[1].ID}
	if err := submitter.RequestItemsTranslation(ctx, job.ID, itemIDs); err != nil {
		t.Fatalf("RequestItemsTranslation: %v", err)
	}

	if len(api.projectReqs) != 2 {
		t.Fatalf("projects created: got %d, want 2", len(api.projectReqs))
	}

	first, err := st.MappingForItem(ctx, job.ID, job.Items[0].ID)
	if err != nil {
		t.Fatalf("MappingForItem first: %v", err)
	}
	second, err := st.MappingForItem(ctx, job.ID, job.Items[1].ID)
	if err != nil {
		t.Fatalf("MappingForItem second: %v", err)
	}
	if first.ProjectID == second.ProjectID {
		t.Fatalf("items share project %s", first.ProjectID)
	}

	reread, err := js.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if reread.State != model.JobStateSubmitted {
		t.Fatalf("job state: got %s", reread.State)
	}
}
