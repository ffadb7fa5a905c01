// Package jobs implements the content platform side of the connector: local
// translation jobs, their items, translated data, and the job message log.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/translation-connector/internal/model"
)

// ErrNotFound is returned when a requested job or item does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteJobStore persists jobs in the connector's SQLite database. It
// shares the database handle (and migrations) with the mapping store.
type SQLiteJobStore struct {
	db *sqlx.DB
}

// NewSQLiteJobStore wraps an already migrated database handle.
func NewSQLiteJobStore(db *sqlx.DB) *SQLiteJobStore {
	return &SQLiteJobStore{db: db}
}

// CreateJob inserts a job and its items. Missing ids are generated.
func (s *SQLiteJobStore) CreateJob(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.State == "" {
		job.State = model.JobStateUnprocessed
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (
			id, provider_id, label, source_language, target_language,
			state, required_by, quote_required, category, review,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ProviderID, job.Label, job.SourceLanguage, job.TargetLanguage,
		string(job.State), job.RequiredBy.UTC(), boolToInt(job.QuoteRequired),
		job.Category, boolToInt(job.Review), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating job %s: %w", job.ID, err)
	}

	for i := range job.Items {
		if err := insertItem(ctx, tx, job.ID, &job.Items[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddItem appends one item to an existing job. Continuous jobs grow this
// way as new content appears.
func (s *SQLiteJobStore) AddItem(ctx context.Context, jobID string, item *model.JobItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertItem(ctx, tx, jobID, item); err != nil {
		return err
	}
	return tx.Commit()
}

func insertItem(ctx context.Context, tx *sqlx.Tx, jobID string, item *model.JobItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.JobID = jobID

	data, err := json.Marshal(item.Data)
	if err != nil {
		return fmt.Errorf("marshaling data of item %s: %w", item.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_items (id, job_id, label, source_url, preview_url, data)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, jobID, item.Label, item.SourceURL, item.PreviewURL, string(data),
	)
	if err != nil {
		return fmt.Errorf("creating job item %s: %w", item.ID, err)
	}
	return nil
}

// GetJob retrieves a job with all of its items.
func (s *SQLiteJobStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM jobs WHERE id = ?", id)

	var (
		job      model.Job
		state    string
		quote    int
		review   int
		required time.Time
		created  time.Time
		updated  time.Time
	)
	err := row.Scan(
		&job.ID, &job.ProviderID, &job.Label, &job.SourceLanguage, &job.TargetLanguage,
		&state, &required, &quote, &job.Category, &review,
		&created, &updated,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", id, err)
	}

	job.State = model.JobState(state)
	job.QuoteRequired = quote != 0
	job.Review = review != 0
	job.RequiredBy = required
	job.CreatedAt = created
	job.UpdatedAt = updated

	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, job_id, label, source_url, preview_url, data FROM job_items WHERE job_id = ? ORDER BY id",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying items of job %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item model.JobItem
			data string
		)
		if err := rows.Scan(&item.ID, &item.JobID, &item.Label, &item.SourceURL, &item.PreviewURL, &data); err != nil {
			return nil, fmt.Errorf("scanning job item row: %w", err)
		}
		if data != "" {
			if err := json.Unmarshal([]byte(data), &item.Data); err != nil {
				return nil, fmt.Errorf("unmarshaling data of item %s: %w", item.ID, err)
			}
		}
		job.Items = append(job.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &job, nil
}

// SetJobState transitions a job to a new state.
func (s *SQLiteJobStore) SetJobState(ctx context.Context, id string, state model.JobState) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET state = ?, updated_at = ? WHERE id = ?",
		string(state), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting state of job %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("setting state of job %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddMessage appends an entry to a job's message log.
func (s *SQLiteJobStore) AddMessage(ctx context.Context, jobID string, typ model.MessageType, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_messages (id, job_id, type, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), jobID, string(typ), text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding message to job %s: %w", jobID, err)
	}
	return nil
}

// Messages retrieves a job's message log, oldest first.
func (s *SQLiteJobStore) Messages(ctx context.Context, jobID string) ([]model.Message, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, job_id, type, text, created_at FROM job_messages WHERE job_id = ? ORDER BY created_at",
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages of job %s: %w", jobID, err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var (
			m   model.Message
			typ string
		)
		if err := rows.Scan(&m.ID, &m.JobID, &typ, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		m.Type = model.MessageType(typ)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ApplyTranslation saves translated texts for one job item.
func (s *SQLiteJobStore) ApplyTranslation(
	ctx context.Context,
	jobID, itemID string,
	texts map[string]string,
	status model.ItemStatus,
) error {
	if len(texts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO item_translations (
			job_id, item_id, data_key, text, status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing translation statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for key, text := range texts {
		_, err = stmt.ExecContext(ctx, jobID, itemID, key, text, string(status), now)
		if err != nil {
			return fmt.Errorf("saving translation of %s/%s: %w", itemID, key, err)
		}
	}

	return tx.Commit()
}

// Translations retrieves the saved translated data of one job item.
func (s *SQLiteJobStore) Translations(ctx context.Context, itemID string) ([]model.TranslatedItem, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT item_id, data_key, text, status FROM item_translations WHERE item_id = ? ORDER BY data_key",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying translations of item %s: %w", itemID, err)
	}
	defer rows.Close()

	var items []model.TranslatedItem
	for rows.Next() {
		var (
			t      model.TranslatedItem
			status string
		)
		if err := rows.Scan(&t.ItemID, &t.DataKey, &t.Text, &status); err != nil {
			return nil, fmt.Errorf("scanning translation row: %w", err)
		}
		t.Status = model.ItemStatus(status)
		items = append(items, t)
	}
	return items, rows.Err()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
