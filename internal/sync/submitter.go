package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/nhle/translation-connector/internal/bigword"
	"github.com/nhle/translation-connector/internal/dateutil"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
)

// Submitter orchestrates the submission of local jobs to the vendor:
// creating the remote project, fanning out file uploads across job items,
// and confirming bulk upload completion before marking the job submitted.
type Submitter struct {
	sync     *Synchronizer
	api      bigword.API
	mappings store.MappingStore
	jobs     store.JobStore
	provider model.ProviderConfig
}

// NewSubmitter wires a submission orchestrator for one provider.
func NewSubmitter(
	sync *Synchronizer,
	api bigword.API,
	mappings store.MappingStore,
	jobs store.JobStore,
	provider model.ProviderConfig,
) *Submitter {
	return &Submitter{
		sync:     sync,
		api:      api,
		mappings: mappings,
		jobs:     jobs,
		provider: provider,
	}
}

// RequestTranslation submits a whole job as one remote project. Either all
// of {project created, all items uploaded, both confirmations matched}
// succeed and the job becomes submitted, or the mapping rows of the attempt
// are rolled back and the job becomes rejected.
func (s *Submitter) RequestTranslation(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job %s: %w", jobID, err)
	}
	if len(job.Items) == 0 {
		return fmt.Errorf("job %s has no items to translate", jobID)
	}

	projectID, err := s.createProject(ctx, job, job.ID, job.ID)
	if err != nil {
		return s.reject(ctx, job, "", err)
	}

	if err := s.mappings.CreateProject(ctx, store.RemoteProject{
		ProjectID:     projectID,
		ProviderID:    s.provider.ID,
		JobID:         job.ID,
		RequiredByUTC: job.RequiredBy.UTC(),
		ReviewEnabled: job.Review,
		Category:      job.Category,
		QuoteRequired: job.QuoteRequired,
	}); err != nil {
		return s.reject(ctx, job, projectID, err)
	}

	if err := s.submitItems(ctx, job, projectID, job.Items); err != nil {
		return s.reject(ctx, job, projectID, err)
	}

	if err := s.jobs.SetJobState(ctx, job.ID, model.JobStateSubmitted); err != nil {
		return s.reject(ctx, job, projectID, err)
	}
	_ = s.jobs.AddMessage(ctx, job.ID, model.MessageStatus,
		"Job has been successfully submitted for translation.")
	return nil
}

// RequestItemsTranslation submits job items individually, one remote
// project per item. Continuous jobs grow item by item and are submitted
// this way. Each item rolls back independently.
func (s *Submitter) RequestItemsTranslation(ctx context.Context, jobID string, itemIDs []string) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job %s: %w", jobID, err)
	}

	var firstErr error
	for _, itemID := range itemIDs {
		item := findItem(job, itemID)
		if item == nil {
			return fmt.Errorf("job %s has no item %s: %w", jobID, itemID, store.ErrNotFound)
		}

		projectID, err := s.createProject(ctx, job, item.ID, item.ID)
		if err == nil {
			err = s.mappings.CreateProject(ctx, store.RemoteProject{
				ProjectID:     projectID,
				ProviderID:    s.provider.ID,
				JobID:         job.ID,
				RequiredByUTC: job.RequiredBy.UTC(),
				ReviewEnabled: job.Review,
				Category:      job.Category,
				QuoteRequired: job.QuoteRequired,
			})
		}
		if err == nil {
			err = s.submitItems(ctx, job, projectID, []model.JobItem{*item})
		}
		if err != nil {
			rejectErr := s.rejectItem(ctx, job, projectID, item, err)
			if firstErr == nil {
				firstErr = rejectErr
			}
			continue
		}

		_ = s.jobs.AddMessage(ctx, job.ID, model.MessageStatus,
			fmt.Sprintf("Job item %s has been successfully submitted for translation.", item.Label))
	}

	if firstErr == nil && job.State == model.JobStateUnprocessed {
		if err := s.jobs.SetJobState(ctx, job.ID, model.JobStateSubmitted); err != nil {
			return err
		}
	}
	return firstErr
}

// submitItems creates mapping rows for the items, uploads their sources,
// and runs both batch confirmations against the expected count.
func (s *Submitter) submitItems(
	ctx context.Context,
	job *model.Job,
	projectID string,
	items []model.JobItem,
) error {
	// The mapping rows are the anchor all subsequent lookups key off,
	// so they are persisted before any file is uploaded.
	for i := range items {
		if _, err := s.mappings.CreateMapping(ctx, store.RemoteMapping{
			JobID:     job.ID,
			ItemID:    items[i].ID,
			DataKey:   store.DataKey,
			ProjectID: projectID,
		}); err != nil {
			return err
		}
	}

	for i := range items {
		if _, err := s.sync.UploadSource(ctx, job, &items[i]); err != nil {
			return err
		}
	}

	// Confirmation triggers the translation on the vendor side. Both the
	// reference and the source batch must match the item count exactly.
	for _, state := range []model.FileState{
		model.FileStateReferenceAdd,
		model.FileStateTranslatableSource,
	} {
		confirmed, err := s.sync.ConfirmBatch(ctx, projectID, state)
		if err != nil {
			return err
		}
		if confirmed != len(items) {
			return &PartialConfirmationError{
				ProjectID: projectID,
				State:     state,
				Expected:  len(items),
				Confirmed: confirmed,
			}
		}
	}

	return nil
}

// createProject creates the remote project for a job, mapping its settings
// and requester metadata.
func (s *Submitter) createProject(
	ctx context.Context,
	job *model.Job,
	purchaseOrder string,
	reference string,
) (string, error) {
	if job.Category != 0 && !model.ValidCategory(job.Category) {
		return "", fmt.Errorf("job %s has unknown specialism category %d", job.ID, job.Category)
	}

	quote := "false"
	if job.QuoteRequired {
		quote = "true"
	}
	workflow := "Localize Only"
	if job.Review {
		workflow = "Localize and Review"
	}

	return s.api.CreateProject(ctx, bigword.ProjectRequest{
		PurchaseOrderNumber: purchaseOrder,
		ProjectReference:    reference,
		RequiredByDateUtc:   dateutil.FormatRequiredBy(job.RequiredBy),
		QuoteRequired:       quote,
		SpecialismID:        job.Category,
		ProjectMetadata: []bigword.MetadataEntry{
			{MetadataKey: "CMS User Name", MetadataValue: s.provider.RequesterName},
			{MetadataKey: "CMS User Email", MetadataValue: s.provider.RequesterEmail},
			{MetadataKey: "Response Service Base URL", MetadataValue: s.provider.CallbackBaseURL},
			{MetadataKey: "Response Service Path", MetadataValue: model.CallbackPath},
			{MetadataKey: "Workflow Options", MetadataValue: workflow},
		},
	})
}

// reject handles a failed whole-job submission: best-effort error report to
// the vendor, rejection message on the job, and mapping rollback so a retry
// starts clean.
func (s *Submitter) reject(ctx context.Context, job *model.Job, projectID string, cause error) error {
	if projectID != "" {
		if sendErr := s.sync.SendFileError(
			ctx, model.FileStateRestartPoint03, projectID, "", job, cause.Error(), true,
		); sendErr != nil {
			log.Printf("job %s: reporting submission failure to vendor: %v", job.ID, sendErr)
		}
	}

	message := fmt.Sprintf("Job has been rejected with following error: %v", cause)
	log.Printf("job %s: %s", job.ID, message)
	_ = s.jobs.AddMessage(ctx, job.ID, model.MessageError, message)
	if err := s.jobs.SetJobState(ctx, job.ID, model.JobStateRejected); err != nil {
		log.Printf("job %s: marking rejected: %v", job.ID, err)
	}
	if err := s.mappings.DeleteJobMappings(ctx, job.ID); err != nil {
		log.Printf("job %s: rolling back mappings: %v", job.ID, err)
	}
	return cause
}

// rejectItem handles a failed per-item submission, rolling back only the
// item's own project.
func (s *Submitter) rejectItem(
	ctx context.Context,
	job *model.Job,
	projectID string,
	item *model.JobItem,
	cause error,
) error {
	if projectID != "" {
		if sendErr := s.sync.SendFileError(
			ctx, model.FileStateRestartPoint01, projectID, "", job, cause.Error(), true,
		); sendErr != nil {
			log.Printf("job %s item %s: reporting submission failure to vendor: %v",
				job.ID, item.ID, sendErr)
		}
	}

	message := fmt.Sprintf("Job item %s has been rejected with following error: %v", item.Label, cause)
	log.Printf("job %s: %s", job.ID, message)
	_ = s.jobs.AddMessage(ctx, job.ID, model.MessageError, message)
	if err := s.jobs.SetJobState(ctx, job.ID, model.JobStateRejected); err != nil {
		log.Printf("job %s: marking rejected: %v", job.ID, err)
	}
	if projectID != "" {
		if err := s.mappings.DeleteProjectMappings(ctx, projectID); err != nil {
			log.Printf("job %s: rolling back project %s: %v", job.ID, projectID, err)
		}
	}
	return cause
}
