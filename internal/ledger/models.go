package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"veritas/internal/evidence"
)

// Status mirrors the analysis lifecycle persisted by the case-management side.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Entry is one ledger row.
type Entry struct {
	ID            int64
	RequestID     string
	Path          string
	Kind          evidence.Kind
	Digest        string
	SizeBytes     int64
	Status        Status
	Verdict       evidence.Verdict
	Confidence    float64
	Score         float64
	Simulated     bool
	SignalsJSON   string
	Note          string
	EngineVersion string
	Duration      time.Duration
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Signals decodes the stored signal map.
func (e *Entry) Signals() (map[string]evidence.SignalReading, error) {
	if e == nil || e.SignalsJSON == "" {
		return nil, nil
	}
	var signals map[string]evidence.SignalReading
	if err := json.Unmarshal([]byte(e.SignalsJSON), &signals); err != nil {
		return nil, fmt.Errorf("decode signals: %w", err)
	}
	return signals, nil
}

// Result rebuilds the verdict stored on a completed entry.
func (e *Entry) Result() (evidence.VerdictResult, error) {
	signals, err := e.Signals()
	if err != nil {
		return evidence.VerdictResult{}, err
	}
	return evidence.VerdictResult{
		Verdict:    e.Verdict,
		Confidence: e.Confidence,
		Score:      e.Score,
		Signals:    signals,
		Simulated:  e.Simulated,
		Note:       e.Note,
	}, nil
}

// Subject is the evidence a ledger row describes.
type Subject struct {
	Item      evidence.Item
	Digest    string
	SizeBytes int64
}
