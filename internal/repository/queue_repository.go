package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// QueueRepository provides persistence for waiting queues and their entries.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// FindByKey loads the queue for a (date, time window) pair.
func (r *QueueRepository) FindByKey(ctx context.Context, date time.Time, startTime, endTime string) (*models.Queue, error) {
	const query = `SELECT id, date, start_time, end_time, created_at FROM queues WHERE date = $1 AND start_time = $2 AND end_time = $3`
	var queue models.Queue
	if err := r.db.GetContext(ctx, &queue, query, date, startTime, endTime); err != nil {
		return nil, err
	}
	return &queue, nil
}

// FindOrCreate returns the queue for the key, creating it when absent. The
// conflict clause keeps concurrent enqueues from racing a duplicate key.
func (r *QueueRepository) FindOrCreate(ctx context.Context, date time.Time, startTime, endTime string) (*models.Queue, error) {
	const insert = `INSERT INTO queues (id, date, start_time, end_time, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (date, start_time, end_time) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), date, startTime, endTime, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create queue: %w", err)
	}
	return r.FindByKey(ctx, date, startTime, endTime)
}

// ListWithWaiting returns all queues holding at least one waiting entry.
func (r *QueueRepository) ListWithWaiting(ctx context.Context) ([]models.Queue, error) {
	const query = `SELECT DISTINCT q.id, q.date, q.start_time, q.end_time, q.created_at FROM queues q JOIN queue_entries e ON e.queue_id = q.id WHERE e.status = $1 ORDER BY q.date ASC, q.start_time ASC`
	var queues []models.Queue
	if err := r.db.SelectContext(ctx, &queues, query, models.QueueStatusWaiting); err != nil {
		return nil, fmt.Errorf("list waiting queues: %w", err)
	}
	return queues, nil
}

// ListWaitingEntries returns a queue's waiting entries in arrival order.
func (r *QueueRepository) ListWaitingEntries(ctx context.Context, queueID string) ([]models.QueueEntry, error) {
	const query = `SELECT id, queue_id, student_id, schedule_id, time_slot_id, receipt_id, priority_score, status, queued_at FROM queue_entries WHERE queue_id = $1 AND status = $2 ORDER BY queued_at ASC`
	var entries []models.QueueEntry
	if err := r.db.SelectContext(ctx, &entries, query, queueID, models.QueueStatusWaiting); err != nil {
		return nil, fmt.Errorf("list waiting entries: %w", err)
	}
	return entries, nil
}

// HasEntry reports whether the student already sits in the queue.
func (r *QueueRepository) HasEntry(ctx context.Context, queueID, studentID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM queue_entries WHERE queue_id = $1 AND student_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, queueID, studentID); err != nil {
		return false, fmt.Errorf("check queue entry: %w", err)
	}
	return count > 0, nil
}

// InsertEntry stores a new queue entry.
func (r *QueueRepository) InsertEntry(ctx context.Context, entry *models.QueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.QueuedAt.IsZero() {
		entry.QueuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO queue_entries (id, queue_id, student_id, schedule_id, time_slot_id, receipt_id, priority_score, status, queued_at) VALUES (:id, :queue_id, :student_id, :schedule_id, :time_slot_id, :receipt_id, :priority_score, :status, :queued_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// MarkEntriesNotAllocated flags the given entries as unallocated within the
// allocation transaction.
func (r *QueueRepository) MarkEntriesNotAllocated(ctx context.Context, tx *sqlx.Tx, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE queue_entries SET status = ? WHERE id IN (?)`, models.QueueStatusNotAllocated, entryIDs)
	if err != nil {
		return fmt.Errorf("build mark entries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("mark entries not allocated: %w", err)
	}
	return nil
}

// DeleteEntries removes allocated entries from the queue within the
// allocation transaction.
func (r *QueueRepository) DeleteEntries(ctx context.Context, tx *sqlx.Tx, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM queue_entries WHERE id IN (?)`, entryIDs)
	if err != nil {
		return fmt.Errorf("build delete entries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("delete queue entries: %w", err)
	}
	return nil
}

// DeleteEmpty prunes queues that no longer hold any entries.
func (r *QueueRepository) DeleteEmpty(ctx context.Context) (int64, error) {
	const query = `DELETE FROM queues q WHERE NOT EXISTS (SELECT 1 FROM queue_entries e WHERE e.queue_id = q.id)`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete empty queues: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
