// Package store persists the association between local translation jobs and
// the vendor's project/file model, including the per-file state-version
// bookkeeping used for reconciliation.
package store

import (
	"context"
	"time"

	"github.com/nhle/translation-connector/internal/model"
)

// DataKey identifies mapping rows owned by this connector. Lookups by
// remote identifier always pair it with the vendor project id.
const DataKey = "tmgmt_thebigword"

// RemoteProject represents one vendor-side project corresponding to one
// local job (or one job item in per-item mode). Immutable once created; the
// vendor has no project-update operation.
type RemoteProject struct {
	ProjectID     string    `db:"project_id"`
	ProviderID    string    `db:"provider_id"`
	JobID         string    `db:"job_id"`
	RequiredByUTC time.Time `db:"required_by"`
	ReviewEnabled bool      `db:"review"`
	Category      int       `db:"category"`
	QuoteRequired bool      `db:"quote_required"`
	CreatedAt     time.Time `db:"created_at"`
}

// RemoteMapping associates one (job, job item) pair with a vendor project
// and tracks the files uploaded under it. ItemID is empty for
// project-level files.
type RemoteMapping struct {
	ID        string
	JobID     string
	ItemID    string
	DataKey   string
	ProjectID string

	// Files maps vendor file ids to their locally recorded
	// FileStateVersion. A local record is authoritative only when its
	// stored version equals the vendor's reported version at poll time.
	Files map[string]int

	CreatedAt time.Time
}

// HasFile reports whether fileID belongs to this mapping, returning its
// stored state version when it does.
func (m *RemoteMapping) HasFile(fileID string) (int, bool) {
	v, ok := m.Files[fileID]
	return v, ok
}

// MappingFilter selects mapping rows. Nil fields match everything.
type MappingFilter struct {
	JobID     *string
	ItemID    *string
	ProjectID *string
}

// MappingStore is the persistence interface for remote projects and file
// mappings. Concurrent writes to the same rows are serialized by the
// underlying storage.
type MappingStore interface {
	CreateProject(ctx context.Context, p RemoteProject) error
	ProjectForJob(ctx context.Context, jobID string) (*RemoteProject, error)

	CreateMapping(ctx context.Context, m RemoteMapping) (string, error)
	ListMappings(ctx context.Context, filter MappingFilter) ([]RemoteMapping, error)
	MappingForItem(ctx context.Context, jobID, itemID string) (*RemoteMapping, error)

	AddFile(ctx context.Context, mappingID, fileID string) error
	SetFileVersion(ctx context.Context, mappingID, fileID string, version int) error

	// DeleteJobMappings removes the project row and all mapping rows
	// created for a job, so that a retried submission starts clean.
	DeleteJobMappings(ctx context.Context, jobID string) error

	// DeleteProjectMappings removes one project row and its mapping
	// rows. Per-item submissions roll back this way without touching
	// the job's other projects.
	DeleteProjectMappings(ctx context.Context, projectID string) error
}

// JobStore is the narrow interface onto the content platform's job and job
// item storage consumed by the sync layer.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*model.Job, error)
	SetJobState(ctx context.Context, id string, state model.JobState) error
	AddMessage(ctx context.Context, jobID string, typ model.MessageType, text string) error
	Messages(ctx context.Context, jobID string) ([]model.Message, error)

	// ApplyTranslation saves translated texts for one job item. Keys are
	// the item's flattened data keys; status marks the result
	// preliminary or final. A final apply overwrites a preliminary one.
	ApplyTranslation(ctx context.Context, jobID, itemID string, texts map[string]string, status model.ItemStatus) error

	Translations(ctx context.Context, itemID string) ([]model.TranslatedItem, error)
}
