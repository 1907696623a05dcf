package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"dupeguard/internal/config"
	"dupeguard/internal/similarity"
)

// DBFileName is the record database created under the configured data directory.
const DBFileName = "records.db"

// SQLiteStore persists file records in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the record database and applies the schema.
func Open(cfg *config.Config) (*SQLiteStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// Mutations on a single connection keep concurrent registrations from
	// interleaving; SQLite then serializes the effective collection writes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS file_records (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    normalized_name TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    storage_path TEXT,
    source_location TEXT,
    fingerprint TEXT,
    registered_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_records_fingerprint ON file_records(fingerprint);
CREATE INDEX IF NOT EXISTS idx_file_records_normalized ON file_records(normalized_name);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Insert adds a record to the collection. The normalized name is derived when
// absent and RegisteredAt defaults to now.
func (s *SQLiteStore) Insert(ctx context.Context, record FileRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return errors.New("record id is required")
	}
	if strings.TrimSpace(record.NormalizedName) == "" {
		record.NormalizedName = similarity.Normalize(record.DisplayName)
	}
	if record.RegisteredAt.IsZero() {
		record.RegisteredAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO file_records (
            id, display_name, normalized_name, size, storage_path,
            source_location, fingerprint, registered_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.DisplayName,
		record.NormalizedName,
		record.Size,
		nullableString(record.StoragePath),
		nullableString(record.SourceLocation),
		nullableString(record.Fingerprint),
		record.RegisteredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Remove deletes a record by identifier.
func (s *SQLiteStore) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM file_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RemoveAll clears the collection and reports how many records were removed.
func (s *SQLiteStore) RemoveAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM file_records`)
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	return res.RowsAffected()
}

// Get fetches a record by identifier, returning nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM file_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// List returns all records ordered by registration time.
func (s *SQLiteStore) List(ctx context.Context) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM file_records ORDER BY registered_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var result []FileRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

// Count returns the tracked-count badge value.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM file_records`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

const recordColumns = "id, display_name, normalized_name, size, storage_path, source_location, fingerprint, registered_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*FileRecord, error) {
	var (
		id             string
		displayName    string
		normalizedName string
		size           int64
		storagePath    sql.NullString
		sourceLocation sql.NullString
		fingerprint    sql.NullString
		registeredRaw  string
	)
	if err := scanner.Scan(
		&id,
		&displayName,
		&normalizedName,
		&size,
		&storagePath,
		&sourceLocation,
		&fingerprint,
		&registeredRaw,
	); err != nil {
		return nil, err
	}

	record := &FileRecord{
		ID:             id,
		DisplayName:    displayName,
		NormalizedName: normalizedName,
		Size:           size,
		StoragePath:    storagePath.String,
		SourceLocation: sourceLocation.String,
		Fingerprint:    fingerprint.String,
	}
	if ts, err := time.Parse(time.RFC3339Nano, registeredRaw); err == nil {
		record.RegisteredAt = ts
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
