package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the MappingStore interface using a local SQLite
// database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ MappingStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// DB exposes the underlying database handle so that sibling stores can
// share the same file and migration set.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CreateProject inserts a remote project row.
func (s *SQLiteStore) CreateProject(ctx context.Context, p RemoteProject) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO remote_projects (
			project_id, provider_id, job_id, required_by,
			review, category, quote_required, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProjectID, p.ProviderID, p.JobID, p.RequiredByUTC.UTC(),
		boolToInt(p.ReviewEnabled), p.Category, boolToInt(p.QuoteRequired),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating remote project %s: %w", p.ProjectID, err)
	}
	return nil
}

// ProjectForJob retrieves the remote project created for a job.
func (s *SQLiteStore) ProjectForJob(ctx context.Context, jobID string) (*RemoteProject, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT * FROM remote_projects WHERE job_id = ? ORDER BY created_at LIMIT 1",
		jobID,
	)

	var (
		p        RemoteProject
		review   int
		quote    int
		required time.Time
		created  time.Time
	)
	err := row.Scan(
		&p.ProjectID, &p.ProviderID, &p.JobID, &required,
		&review, &p.Category, &quote, &created,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting remote project for job %s: %w", jobID, err)
	}

	p.RequiredByUTC = required
	p.ReviewEnabled = review != 0
	p.QuoteRequired = quote != 0
	p.CreatedAt = created
	return &p, nil
}

// CreateMapping inserts a mapping row and returns its generated id.
func (s *SQLiteStore) CreateMapping(ctx context.Context, m RemoteMapping) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.DataKey == "" {
		m.DataKey = DataKey
	}

	var itemID interface{}
	if m.ItemID != "" {
		itemID = m.ItemID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO remote_mappings (id, tjid, tjiid, data_key, project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.JobID, itemID, m.DataKey, m.ProjectID, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating mapping for job %s item %s: %w", m.JobID, m.ItemID, err)
	}
	return m.ID, nil
}

// ListMappings retrieves mapping rows matching the filter, with their file
// entries attached.
func (s *SQLiteStore) ListMappings(ctx context.Context, filter MappingFilter) ([]RemoteMapping, error) {
	builder := sq.Select("id", "tjid", "tjiid", "data_key", "project_id", "created_at").
		From("remote_mappings").
		Where(sq.Eq{"data_key": DataKey}).
		OrderBy("created_at")

	if filter.JobID != nil {
		builder = builder.Where(sq.Eq{"tjid": *filter.JobID})
	}
	if filter.ItemID != nil {
		builder = builder.Where(sq.Eq{"tjiid": *filter.ItemID})
	}
	if filter.ProjectID != nil {
		builder = builder.Where(sq.Eq{"project_id": *filter.ProjectID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building mapping query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var mappings []RemoteMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range mappings {
		if err := s.loadFiles(ctx, &mappings[i]); err != nil {
			return nil, err
		}
	}

	return mappings, nil
}

// MappingForItem retrieves the mapping row for one (job, job item) pair.
func (s *SQLiteStore) MappingForItem(ctx context.Context, jobID, itemID string) (*RemoteMapping, error) {
	mappings, err := s.ListMappings(ctx, MappingFilter{JobID: &jobID, ItemID: &itemID})
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, ErrNotFound
	}
	return &mappings[0], nil
}

// AddFile records a newly uploaded file in a mapping with state version 1.
func (s *SQLiteStore) AddFile(ctx context.Context, mappingID, fileID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO remote_files (mapping_id, file_id, file_state_version)
		VALUES (?, ?, 1)`,
		mappingID, fileID,
	)
	if err != nil {
		return fmt.Errorf("adding file %s to mapping %s: %w", fileID, mappingID, err)
	}
	return nil
}

// SetFileVersion updates the stored state version of one file.
func (s *SQLiteStore) SetFileVersion(ctx context.Context, mappingID, fileID string, version int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE remote_files SET file_state_version = ?
		WHERE mapping_id = ? AND file_id = ?`,
		version, mappingID, fileID,
	)
	if err != nil {
		return fmt.Errorf("updating version of file %s: %w", fileID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating version of file %s: %w", fileID, ErrNotFound)
	}
	return nil
}

// DeleteJobMappings removes the project and mapping rows of a job. File
// entries cascade with their mappings.
func (s *SQLiteStore) DeleteJobMappings(ctx context.Context, jobID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM remote_mappings WHERE tjid = ? AND data_key = ?", jobID, DataKey,
	); err != nil {
		return fmt.Errorf("deleting mappings for job %s: %w", jobID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM remote_projects WHERE job_id = ?", jobID,
	); err != nil {
		return fmt.Errorf("deleting remote project for job %s: %w", jobID, err)
	}

	return tx.Commit()
}

// DeleteProjectMappings removes one project row and its mapping rows.
func (s *SQLiteStore) DeleteProjectMappings(ctx context.Context, projectID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM remote_mappings WHERE project_id = ? AND data_key = ?", projectID, DataKey,
	); err != nil {
		return fmt.Errorf("deleting mappings for project %s: %w", projectID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM remote_projects WHERE project_id = ?", projectID,
	); err != nil {
		return fmt.Errorf("deleting remote project %s: %w", projectID, err)
	}

	return tx.Commit()
}

// loadFiles attaches the file entries of a mapping.
func (s *SQLiteStore) loadFiles(ctx context.Context, m *RemoteMapping) error {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT file_id, file_state_version FROM remote_files WHERE mapping_id = ?",
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("querying files of mapping %s: %w", m.ID, err)
	}
	defer rows.Close()

	m.Files = make(map[string]int)
	for rows.Next() {
		var (
			fileID  string
			version int
		)
		if err := rows.Scan(&fileID, &version); err != nil {
			return fmt.Errorf("scanning file row: %w", err)
		}
		m.Files[fileID] = version
	}
	return rows.Err()
}

// scanMapping scans a mapping row from a sqlx.Rows result set.
func scanMapping(rows *sqlx.Rows) (RemoteMapping, error) {
	var (
		m       RemoteMapping
		itemID  sql.NullString
		created time.Time
	)

	err := rows.Scan(&m.ID, &m.JobID, &itemID, &m.DataKey, &m.ProjectID, &created)
	if err != nil {
		return RemoteMapping{}, fmt.Errorf("scanning mapping row: %w", err)
	}

	if itemID.Valid {
		m.ItemID = itemID.String
	}
	m.CreatedAt = created
	return m, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
