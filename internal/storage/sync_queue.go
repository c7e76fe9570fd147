package storage

import (
	"context"
	"fmt"
	"time"

	"santiye/internal/core"
)

const (
	SyncPending    = "pending"
	SyncProcessing = "processing"
	SyncCompleted  = "completed"
	SyncFailed     = "failed"
)

// SyncItem is one row of the spreadsheet sync queue.
type SyncItem struct {
	ID        int64
	Kind      core.SyncKind
	EntityID  int64
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// SyncStats counts queue rows per status.
type SyncStats struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// EnqueueSync records that an entity still has to be written to the spreadsheet.
func (r *SQLiteRepository) EnqueueSync(ctx context.Context, kind core.SyncKind, entityID int64) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("enqueue sync: unknown kind %q", kind)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_queue (kind, entity_id) VALUES (?, ?)`, string(kind), entityID)
	if err != nil {
		return 0, fmt.Errorf("enqueue sync: %w", err)
	}
	return res.LastInsertId()
}

// DequeueSync claims up to limit pending rows, oldest first, and moves them to
// processing so concurrent drains never pick the same row.
func (r *SQLiteRepository) DequeueSync(ctx context.Context, limit int) ([]SyncItem, error) {
	if limit <= 0 {
		limit = 10
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, kind, entity_id, status, attempts, COALESCE(last_error, ''), created_at
		FROM sync_queue WHERE status = ? ORDER BY id LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending syncs: %w", err)
	}

	var items []SyncItem
	for rows.Next() {
		var (
			it      SyncItem
			kind    string
			created string
		)
		if err := rows.Scan(&it.ID, &kind, &it.EntityID, &it.Status, &it.Attempts, &it.LastError, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sync item: %w", err)
		}
		it.Kind = core.SyncKind(kind)
		it.CreatedAt = parseTimestamp(created)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sync items: %w", err)
	}
	rows.Close()

	for i := range items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE sync_queue SET status = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
			WHERE id = ?`, SyncProcessing, items[i].ID); err != nil {
			return nil, fmt.Errorf("claim sync item %d: %w", items[i].ID, err)
		}
		items[i].Status = SyncProcessing
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dequeue: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncCompleted, "", false)
}

// MarkSyncFailed records a failed attempt. With retry set the row goes back to
// pending, otherwise it is parked as failed.
func (r *SQLiteRepository) MarkSyncFailed(ctx context.Context, id int64, reason string, retry bool) error {
	status := SyncFailed
	if retry {
		status = SyncPending
	}
	return r.setSyncStatus(ctx, id, status, reason, true)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status, reason string, attempt bool) error {
	inc := 0
	if attempt {
		inc = 1
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET status = ?, attempts = attempts + ?, last_error = NULLIF(?, ''),
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, status, inc, reason, id)
	if err != nil {
		return fmt.Errorf("mark sync %d %s: %w", id, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sync item %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ResetStaleProcessing returns rows left in processing by a crashed worker to pending.
func (r *SQLiteRepository) ResetStaleProcessing(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ? WHERE status = ?`, SyncPending, SyncProcessing)
	if err != nil {
		return 0, fmt.Errorf("reset stale syncs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailedSyncs moves failed rows back to pending with a fresh attempt count.
func (r *SQLiteRepository) RetryFailedSyncs(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, attempts = 0 WHERE status = ?`, SyncPending, SyncFailed)
	if err != nil {
		return 0, fmt.Errorf("retry failed syncs: %w", err)
	}
	return res.RowsAffected()
}

// CleanupCompletedSyncs deletes completed rows older than cutoff.
func (r *SQLiteRepository) CleanupCompletedSyncs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE status = ? AND updated_at < ?`,
		SyncCompleted, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cleanup completed syncs: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) SyncStats(ctx context.Context) (SyncStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return SyncStats{}, fmt.Errorf("sync stats: %w", err)
	}
	defer rows.Close()

	var st SyncStats
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return SyncStats{}, fmt.Errorf("scan sync stats: %w", err)
		}
		switch status {
		case SyncPending:
			st.Pending = n
		case SyncProcessing:
			st.Processing = n
		case SyncCompleted:
			st.Completed = n
		case SyncFailed:
			st.Failed = n
		}
	}
	return st, rows.Err()
}
