package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
)

// retrievalStates are the two terminal states of interest. The review
// workflow exposes translations twice: once as a preliminary reviewable
// draft and once as final.
var retrievalStates = []model.FileState{
	model.FileStateTranslatableReviewPreview,
	model.FileStateTranslatableComplete,
}

// Counts summarizes a scoped retrieval over one job's items.
type Counts struct {
	Translated   int
	Untranslated int
}

// PullCounts summarizes a global pull across all jobs of a provider.
type PullCounts struct {
	Updated    int
	NonUpdated int
}

// Add accumulates another result into c.
func (c *PullCounts) Add(other PullCounts) {
	c.Updated += other.Updated
	c.NonUpdated += other.NonUpdated
}

// Retriever reconciles polled vendor state against the mapping store and
// applies matched translations to local jobs.
type Retriever struct {
	sync     *Synchronizer
	mappings store.MappingStore
	jobs     store.JobStore
}

// NewRetriever wires a retrieval orchestrator for one provider.
func NewRetriever(sync *Synchronizer, mappings store.MappingStore, jobs store.JobStore) *Retriever {
	return &Retriever{
		sync:     sync,
		mappings: mappings,
		jobs:     jobs,
	}
}

// FetchTranslatedFiles polls files of one state scoped to a job and applies
// every matched file. Per-file failures are reported to the vendor and
// counted, never aborting the batch; when any file failed, a batch-level
// restart confirmation is sent at the end.
func (r *Retriever) FetchTranslatedFiles(
	ctx context.Context,
	jobID string,
	state model.FileState,
) (Counts, error) {
	job, err := r.jobs.GetJob(ctx, jobID)
	if err != nil {
		return Counts{}, fmt.Errorf("loading job %s: %w", jobID, err)
	}

	poll, err := r.sync.PollState(ctx, state, job.ID)
	if err != nil {
		return Counts{}, err
	}

	readyByFile := make(map[string]ReadyFile, len(poll.Ready))
	for _, ready := range poll.Ready {
		readyByFile[ready.Info.FileID.String()] = ready
	}

	var (
		counts    Counts
		hadErrors bool
		projectID string
	)
	for i := range job.Items {
		item := &job.Items[i]
		mapping, err := r.mappings.MappingForItem(ctx, job.ID, item.ID)
		if err != nil {
			counts.Untranslated++
			continue
		}
		projectID = mapping.ProjectID

		fetched := false
		for fileID := range mapping.Files {
			if _, ok := readyByFile[fileID]; !ok {
				continue
			}
			if err := r.sync.FetchAndApply(ctx, job, state, fileID); err != nil {
				if sendErr := r.sync.SendFileError(
					ctx, model.FileStateRestartPoint01,
					mapping.ProjectID, fileID, job, err.Error(), false,
				); sendErr != nil {
					log.Printf("job %s: reporting fetch failure to vendor: %v", job.ID, sendErr)
				}
				_ = r.jobs.AddMessage(ctx, job.ID, model.MessageError,
					fmt.Sprintf("Error fetching the job item: %s.", item.Label))
				hadErrors = true
				continue
			}
			fetched = true
		}

		if fetched {
			counts.Translated++
		} else {
			counts.Untranslated++
		}
	}

	if hadErrors && projectID != "" {
		if _, err := r.sync.ConfirmBatch(ctx, projectID, model.FileStateRestartPoint01); err != nil {
			log.Printf("job %s: confirming restart batch: %v", job.ID, err)
		}
	}

	return counts, nil
}

// FetchAllTranslatedFiles runs a scoped retrieval for both terminal states
// and aggregates the counts. Untranslated is counted against the
// final-state pass, so an item is only pending while neither state yielded
// its translation.
func (r *Retriever) FetchAllTranslatedFiles(ctx context.Context, jobID string) (Counts, error) {
	var total Counts
	for _, state := range retrievalStates {
		counts, err := r.FetchTranslatedFiles(ctx, jobID, state)
		if err != nil {
			return total, err
		}
		total.Translated += counts.Translated
		total.Untranslated = counts.Untranslated
	}
	return total, nil
}

// PullRemoteTranslationsForStatus polls all files of one state across the
// vendor account, resolves each to its owning job through the mapping
// store, and applies every match. Files of unknown projects are skipped
// silently: they belong to other installations sharing the account.
func (r *Retriever) PullRemoteTranslationsForStatus(
	ctx context.Context,
	state model.FileState,
) (PullCounts, error) {
	poll, err := r.sync.PollState(ctx, state, "")
	if err != nil {
		return PullCounts{}, err
	}

	counts := PullCounts{NonUpdated: poll.NotReady}
	for _, ready := range poll.Ready {
		job, err := r.jobs.GetJob(ctx, ready.Mapping.JobID)
		if err != nil {
			log.Printf("pull %s: loading job %s: %v", state, ready.Mapping.JobID, err)
			counts.NonUpdated++
			continue
		}
		if err := r.sync.FetchAndApply(ctx, job, state, ready.Info.FileID.String()); err != nil {
			log.Printf("pull %s: job %s: %v", state, job.ID, err)
			counts.NonUpdated++
			continue
		}
		counts.Updated++
	}

	return counts, nil
}

// PullRemoteTranslations runs a global pull for both terminal states and
// aggregates the counts.
func (r *Retriever) PullRemoteTranslations(ctx context.Context) (PullCounts, error) {
	var total PullCounts
	for _, state := range retrievalStates {
		counts, err := r.PullRemoteTranslationsForStatus(ctx, state)
		if err != nil {
			return total, err
		}
		total.Add(counts)
	}
	return total, nil
}
