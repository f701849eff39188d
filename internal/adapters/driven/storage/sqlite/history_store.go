package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
)

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// Record logs a pass.
func (s *historyStore) Record(ctx context.Context, record *domain.PassRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO pass_history
			(id, binding, trigger_src, decision, outcome, error, local_hash, remote_hash, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Binding, string(record.Trigger),
		string(record.Decision), string(record.Outcome),
		nullString(record.Error), nullString(record.LocalHash), nullString(record.RemoteHash),
		record.StartedAt.UnixNano(), record.EndedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording pass: %w", err)
	}
	return nil
}

// List returns recent passes, most recent first.
// An empty binding lists passes across all bindings.
func (s *historyStore) List(ctx context.Context, binding string, limit int) ([]domain.PassRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, binding, trigger_src, decision, outcome, error, local_hash, remote_hash, started_at, ended_at
		FROM pass_history
		WHERE ? = '' OR binding = ?
		ORDER BY started_at DESC, seq DESC
		LIMIT ?
	`, binding, binding, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pass history: %w", err)
	}
	defer rows.Close()

	var records []domain.PassRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanPassRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pass history: %w", err)
	}

	return records, nil
}

// Stats aggregates all recorded passes for a binding.
func (s *historyStore) Stats(ctx context.Context, binding string) (domain.PassStats, error) {
	var stats domain.PassStats
	var lastPass sql.NullInt64

	err := s.store.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			MAX(ended_at)
		FROM pass_history
		WHERE binding = ?
	`, string(domain.OutcomePushed), string(domain.OutcomePulled), string(domain.OutcomeInSync),
		string(domain.OutcomeConflict), string(domain.OutcomeSkipped), string(domain.OutcomeFailed),
		binding).Scan(&stats.Total, &stats.Pushed, &stats.Pulled, &stats.InSync,
		&stats.Conflicts, &stats.Skipped, &stats.Failed, &lastPass)
	if err != nil {
		return domain.PassStats{}, fmt.Errorf("querying pass stats: %w", err)
	}

	stats.LastPass = parseNullableUnixNano(lastPass)
	return stats, nil
}

// Prune removes old passes beyond the retention limit.
// Keeps the most recent 'keep' passes per binding.
func (s *historyStore) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM pass_history
		WHERE seq NOT IN (
			SELECT seq FROM (
				SELECT seq, ROW_NUMBER() OVER (PARTITION BY binding ORDER BY started_at DESC, seq DESC) as rn
				FROM pass_history
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning pass history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanPassRecord scans a pass record from *sql.Rows.
func scanPassRecord(rows *sql.Rows) (*domain.PassRecord, error) {
	var record domain.PassRecord
	var trigger, decision, outcome string
	var errMsg, localHash, remoteHash sql.NullString
	var startedAt, endedAt int64

	if err := rows.Scan(&record.ID, &record.Binding, &trigger, &decision, &outcome,
		&errMsg, &localHash, &remoteHash, &startedAt, &endedAt); err != nil {
		return nil, fmt.Errorf("scanning pass record: %w", err)
	}

	record.Trigger = domain.Trigger(trigger)
	record.Decision = domain.Decision(decision)
	record.Outcome = domain.Outcome(outcome)
	record.Error = errMsg.String
	record.LocalHash = localHash.String
	record.RemoteHash = remoteHash.String
	record.StartedAt = time.Unix(0, startedAt)
	record.EndedAt = time.Unix(0, endedAt)

	return &record, nil
}

// parseNullableUnixNano converts a nullable nanosecond timestamp to time.Time.
// Returns zero time if the value is NULL.
func parseNullableUnixNano(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64)
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
