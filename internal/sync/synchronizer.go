// Package sync drives local translation jobs through the vendor's
// project/file lifecycle: uploading sources, confirming batches, polling
// remote state, and applying retrieved translations.
package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/translation-connector/internal/bigword"
	"github.com/nhle/translation-connector/internal/dateutil"
	"github.com/nhle/translation-connector/internal/model"
	"github.com/nhle/translation-connector/internal/store"
	"github.com/nhle/translation-connector/internal/xliff"
)

// Synchronizer moves single files through their remote lifecycle and keeps
// the mapping store consistent with it.
type Synchronizer struct {
	api      bigword.API
	mappings store.MappingStore
	jobs     store.JobStore
	format   xliff.Format
	provider model.ProviderConfig
}

// NewSynchronizer wires a file synchronizer for one provider.
func NewSynchronizer(
	api bigword.API,
	mappings store.MappingStore,
	jobs store.JobStore,
	format xliff.Format,
	provider model.ProviderConfig,
) *Synchronizer {
	return &Synchronizer{
		api:      api,
		mappings: mappings,
		jobs:     jobs,
		format:   format,
		provider: provider,
	}
}

// UploadSource converts a job item to the interchange format and uploads it
// as a TranslatableSource file, recording the returned file id in the
// item's mapping with state version 1. A companion reference file carrying
// the item's source URL is uploaded alongside it; the vendor operators rely
// on it for traceability, so its failure fails the upload.
func (s *Synchronizer) UploadSource(
	ctx context.Context,
	job *model.Job,
	item *model.JobItem,
) (string, error) {
	mapping, err := s.mappings.MappingForItem(ctx, job.ID, item.ID)
	if err != nil {
		return "", fmt.Errorf("looking up mapping for item %s: %w", item.ID, err)
	}

	payload, err := s.format.Export(job, item)
	if err != nil {
		return "", fmt.Errorf("exporting item %s: %w", item.ID, err)
	}

	name := fmt.Sprintf(
		"JobID_%s_JobItemID_%s_%s_%s",
		job.ID, item.ID, job.SourceLanguage, job.TargetLanguage,
	)
	fileID, err := s.api.UploadFile(ctx, bigword.FileRequest{
		ProjectID:         mapping.ProjectID,
		RequiredByDateUtc: dateutil.FormatRequiredBy(job.RequiredBy),
		SourceLanguage:    job.SourceLanguage,
		TargetLanguage:    job.TargetLanguage,
		FilePathAndName:   name + ".xliff",
		FileState:         model.FileStateTranslatableSource,
		FileData:          base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		return "", fmt.Errorf("uploading source of item %s: %w", item.ID, err)
	}

	if err := s.mappings.AddFile(ctx, mapping.ID, fileID); err != nil {
		return "", err
	}

	if err := s.SendPreviewURL(ctx, job, item, fileID, false); err != nil {
		return "", err
	}

	return fileID, nil
}

// SendPreviewURL uploads the reference file of an item: the source URL
// before translation starts, or the live preview URL once preliminary
// translations exist.
func (s *Synchronizer) SendPreviewURL(
	ctx context.Context,
	job *model.Job,
	item *model.JobItem,
	fileID string,
	preview bool,
) error {
	state := model.FileStateReferenceAdd
	name := "source-url"
	uri := item.SourceURL
	if preview {
		state = model.FileStateResourcePreviewURL
		name = "preview-url"
		uri = item.PreviewURL
	}

	payload := `<?xml version="1.0" encoding="UTF-8"?><!DOCTYPE PreviewUrl SYSTEM "http://www.thebigword.com/dtds/PreviewUrl.dtd">
<PreviewUrl>` + s.absoluteURL(uri) + `</PreviewUrl>`

	_, err := s.api.UpdateFile(ctx, bigword.FileRequest{
		ProjectID:         s.projectIDForItem(ctx, job.ID, item.ID),
		RequiredByDateUtc: dateutil.FormatRequiredBy(job.RequiredBy),
		SourceLanguage:    job.SourceLanguage,
		TargetLanguage:    job.TargetLanguage,
		FilePathAndName:   name + ".xml",
		FileState:         state,
		FileData:          base64.StdEncoding.EncodeToString([]byte(payload)),
		FileIDToUpdate:    fileID,
	})
	if err != nil {
		return fmt.Errorf("sending %s of item %s: %w", name, item.ID, err)
	}
	return nil
}

// ConfirmBatch tells the vendor that all files of a state for a project
// are finalized and returns how many it accepted. Callers must compare the
// count against the expected number of files.
func (s *Synchronizer) ConfirmBatch(
	ctx context.Context,
	projectID string,
	state model.FileState,
) (int, error) {
	return s.api.ConfirmUploaded(ctx, projectID, state)
}

// ReadyFile is a vendor file whose locally stored state version matches
// the vendor-reported one, so it can be fetched exactly once.
type ReadyFile struct {
	Info          bigword.FileInfo
	Mapping       store.RemoteMapping
	StoredVersion int
}

// PollResult is the outcome of one reconciliation poll. Not-ready files
// are not an error; they simply become ready on a later poll.
type PollResult struct {
	// Ready lists files whose local and remote versions agree.
	Ready []ReadyFile

	// NotReady counts known files whose versions disagree.
	NotReady int

	// Unknown counts files with no local mapping. They belong to other
	// installations sharing the vendor account and are skipped.
	Unknown int
}

// PollState retrieves all vendor files currently in state and reconciles
// them against the mapping store. When scopeJobID is non-empty, only files
// of that job's mappings are considered.
func (s *Synchronizer) PollState(
	ctx context.Context,
	state model.FileState,
	scopeJobID string,
) (*PollResult, error) {
	infos, err := s.api.FileInfos(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("polling %s files: %w", state, err)
	}

	filter := store.MappingFilter{}
	if scopeJobID != "" {
		filter.JobID = &scopeJobID
	}
	mappings, err := s.mappings.ListMappings(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Index mappings by project id: the composite remote identifier is
	// (vendor key, project id), and the data key is fixed per connector.
	byProject := make(map[string][]store.RemoteMapping)
	for _, m := range mappings {
		byProject[m.ProjectID] = append(byProject[m.ProjectID], m)
	}

	result := &PollResult{}
	for _, info := range infos {
		matched := false
		for _, m := range byProject[info.ProjectID.String()] {
			stored, ok := m.HasFile(info.FileID.String())
			if !ok {
				continue
			}
			matched = true
			if stored == info.FileStateVersion {
				result.Ready = append(result.Ready, ReadyFile{
					Info:          info,
					Mapping:       m,
					StoredVersion: stored,
				})
			} else {
				result.NotReady++
			}
			break
		}
		if !matched {
			result.Unknown++
		}
	}

	return result, nil
}

// FetchAndApply downloads one file, applies its translations to the job,
// and acknowledges the download. Content retrieved from the complete state
// is final; everything else is preliminary. The stored file version is
// bumped only after a successful apply, so a replay before the bump is
// idempotent and a replay after it is skipped as a reconciliation mismatch.
func (s *Synchronizer) FetchAndApply(
	ctx context.Context,
	job *model.Job,
	state model.FileState,
	fileID string,
) error {
	mapping, stored, err := s.mappingForFile(ctx, job.ID, fileID)
	if err != nil {
		return err
	}

	data, err := s.api.DownloadFile(ctx, state, fileID)
	if err != nil {
		return &SyncError{FileID: fileID, Err: err}
	}

	imported, err := s.format.Import(data)
	if err != nil {
		return &SyncError{FileID: fileID, Err: err}
	}

	status := model.StatusPreliminary
	if state.Final() {
		status = model.StatusTranslated
	}

	for itemID, texts := range imported {
		// Tag every leaf of the translated tree with its status, the
		// shape downstream consumers of the stored data expect.
		tree := xliff.Unflatten(texts)
		xliff.MarkStatus(tree, status)
		flat := xliff.Flatten(tree)

		if err := s.jobs.ApplyTranslation(ctx, job.ID, itemID, flat, status); err != nil {
			return &SyncError{FileID: fileID, Err: err}
		}
	}

	if err := s.api.ConfirmDownloaded(ctx, fileID, state); err != nil {
		return &SyncError{FileID: fileID, Err: err}
	}

	if err := s.mappings.SetFileVersion(ctx, mapping.ID, fileID, stored+1); err != nil {
		return err
	}

	if status == model.StatusPreliminary && job.Review {
		for itemID := range imported {
			item := findItem(job, itemID)
			if item == nil {
				continue
			}
			if err := s.SendPreviewURL(ctx, job, item, fileID, true); err != nil {
				return &SyncError{FileID: fileID, Err: err}
			}
		}
	}

	return nil
}

// SendFileError uploads an error report as a file update at a restart
// state so the vendor operator can see what failed. This is fire and
// forget: callers log a failure here but never escalate it, to avoid
// error-reporting loops.
func (s *Synchronizer) SendFileError(
	ctx context.Context,
	state model.FileState,
	projectID string,
	fileID string,
	job *model.Job,
	message string,
	confirm bool,
) error {
	now := dateutil.FormatRequiredBy(time.Now())
	_, err := s.api.UpdateFile(ctx, bigword.FileRequest{
		ProjectID:         projectID,
		RequiredByDateUtc: now,
		SourceLanguage:    job.SourceLanguage,
		TargetLanguage:    job.TargetLanguage,
		FilePathAndName:   "error-" + now + ".txt",
		FileState:         state,
		FileData:          base64.StdEncoding.EncodeToString([]byte(message)),
		FileIDToUpdate:    fileID,
	})
	if err != nil {
		return fmt.Errorf("sending error file for project %s: %w", projectID, err)
	}
	if confirm {
		if _, err := s.ConfirmBatch(ctx, projectID, state); err != nil {
			return fmt.Errorf("confirming error file for project %s: %w", projectID, err)
		}
	}
	return nil
}

// mappingForFile finds the job mapping holding fileID.
func (s *Synchronizer) mappingForFile(
	ctx context.Context,
	jobID, fileID string,
) (*store.RemoteMapping, int, error) {
	mappings, err := s.mappings.ListMappings(ctx, store.MappingFilter{JobID: &jobID})
	if err != nil {
		return nil, 0, err
	}
	for i := range mappings {
		if stored, ok := mappings[i].HasFile(fileID); ok {
			return &mappings[i], stored, nil
		}
	}
	return nil, 0, fmt.Errorf("file %s has no mapping in job %s: %w", fileID, jobID, store.ErrNotFound)
}

// projectIDForItem resolves the project id of an item's mapping. An item
// without a mapping yields an empty id, which the vendor rejects; that
// surfaces as a StatusError on the call itself.
func (s *Synchronizer) projectIDForItem(ctx context.Context, jobID, itemID string) string {
	mapping, err := s.mappings.MappingForItem(ctx, jobID, itemID)
	if err != nil {
		return ""
	}
	return mapping.ProjectID
}

// absoluteURL joins a site-relative URI with the provider's callback base
// URL; absolute URIs pass through untouched. An empty URI resolves to the
// connector's no-preview page.
func (s *Synchronizer) absoluteURL(uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri
	}
	base := strings.TrimRight(s.provider.CallbackBaseURL, "/")
	if uri == "" {
		return base + "/no-preview"
	}
	return base + "/" + strings.TrimLeft(uri, "/")
}

// findItem returns the job item with the given id, or nil.
func findItem(job *model.Job, itemID string) *model.JobItem {
	for i := range job.Items {
		if job.Items[i].ID == itemID {
			return &job.Items[i]
		}
	}
	return nil
}
