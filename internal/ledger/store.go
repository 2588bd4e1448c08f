package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"veritas/internal/config"
	"veritas/internal/engine"
	"veritas/internal/evidence"
	"veritas/internal/services"
)

// ErrNotFound is returned by transitions on an unknown request id.
var ErrNotFound = errors.New("ledger entry not found")

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the ledger under the configured data directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.LedgerPath())
}

// OpenPath connects to (or creates) the ledger at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; batch workers share this one.
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts a processing row. An empty requestID is replaced by a new one.
func (s *Store) Begin(ctx context.Context, requestID string, subject Subject) (*Entry, error) {
	if strings.TrimSpace(requestID) == "" {
		requestID = uuid.NewString()
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (
            request_id, evidence_path, evidence_kind, digest, size_bytes,
            status, engine_version, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		requestID,
		subject.Item.Path,
		string(subject.Item.Kind),
		nullableString(subject.Digest),
		subject.SizeBytes,
		StatusProcessing,
		engine.Version,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStageFailure, "ledger", "begin", requestID, err)
	}
	return s.GetByRequestID(ctx, requestID)
}

// Complete stores the verdict for a processing row.
func (s *Store) Complete(ctx context.Context, requestID string, result evidence.VerdictResult, elapsed time.Duration) error {
	signals, err := marshalSignals(result.Signals)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET
            status = ?, verdict = ?, confidence = ?, score = ?, simulated = ?,
            signals_json = ?, note = ?, duration_ms = ?, error_message = NULL, updated_at = ?
        WHERE request_id = ?`,
		StatusCompleted,
		string(result.Verdict),
		result.Confidence,
		result.Score,
		boolToInt(result.Simulated),
		nullableString(signals),
		nullableString(result.Note),
		elapsed.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
		requestID,
	)
	if err != nil {
		return services.Wrap(services.ErrStageFailure, "ledger", "complete", requestID, err)
	}
	return requireRow(res, requestID)
}

// Fail marks a processing row as failed.
func (s *Store) Fail(ctx context.Context, requestID, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analyses SET status = ?, error_message = ?, updated_at = ? WHERE request_id = ?`,
		StatusFailed,
		nullableString(strings.TrimSpace(message)),
		time.Now().UTC().Format(time.RFC3339Nano),
		requestID,
	)
	if err != nil {
		return services.Wrap(services.ErrStageFailure, "ledger", "fail", requestID, err)
	}
	return requireRow(res, requestID)
}

// Record stores a finished analysis in one step.
func (s *Store) Record(ctx context.Context, requestID string, subject Subject, result evidence.VerdictResult, elapsed time.Duration) (*Entry, error) {
	entry, err := s.Begin(ctx, requestID, subject)
	if err != nil {
		return nil, err
	}
	if err := s.Complete(ctx, entry.RequestID, result, elapsed); err != nil {
		return nil, err
	}
	return s.GetByRequestID(ctx, entry.RequestID)
}

// GetByRequestID fetches an entry. A missing entry returns nil, nil.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM analyses WHERE request_id = ?`, requestID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// FindLatestByDigest returns the newest completed, non-error entry for digest
// produced by the current engine version.
func (s *Store) FindLatestByDigest(ctx context.Context, digest string) (*Entry, error) {
	if strings.TrimSpace(digest) == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM analyses
        WHERE digest = ? AND status = ? AND verdict != ? AND engine_version = ?
        ORDER BY id DESC LIMIT 1`,
		digest, StatusCompleted, string(evidence.VerdictError), engine.Version,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by digest: %w", err)
	}
	return entry, nil
}

// List returns the newest entries first, optionally filtered by status.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + entryColumns + ` FROM analyses`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func marshalSignals(signals map[string]evidence.SignalReading) (string, error) {
	if len(signals) == 0 {
		return "", nil
	}
	data, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(data), nil
}

func requireRow(res sql.Result, requestID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return nil
}
