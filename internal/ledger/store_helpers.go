package ledger

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"veritas/internal/evidence"
)

const entryColumns = "id, request_id, evidence_path, evidence_kind, digest, size_bytes, status, verdict, confidence, score, simulated, signals_json, note, engine_version, duration_ms, error_message, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id            int64
		requestID     string
		path          string
		kind          string
		digest        sql.NullString
		sizeBytes     sql.NullInt64
		status        string
		verdict       sql.NullString
		confidence    sql.NullFloat64
		score         sql.NullFloat64
		simulated     sql.NullInt64
		signals       sql.NullString
		note          sql.NullString
		engineVersion string
		durationMS    sql.NullInt64
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&requestID,
		&path,
		&kind,
		&digest,
		&sizeBytes,
		&status,
		&verdict,
		&confidence,
		&score,
		&simulated,
		&signals,
		&note,
		&engineVersion,
		&durationMS,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		RequestID:     requestID,
		Path:          path,
		Kind:          evidence.Kind(kind),
		Digest:        digest.String,
		SizeBytes:     sizeBytes.Int64,
		Status:        Status(status),
		Verdict:       evidence.Verdict(verdict.String),
		Confidence:    confidence.Float64,
		Score:         score.Float64,
		Simulated:     simulated.Valid && simulated.Int64 != 0,
		SignalsJSON:   signals.String,
		Note:          note.String,
		EngineVersion: engineVersion,
		Duration:      time.Duration(durationMS.Int64) * time.Millisecond,
		ErrorMessage:  errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
