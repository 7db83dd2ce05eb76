package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

func newQueueMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestQueueRepositoryFindOrCreate(t *testing.T) {
	db, mock, cleanup := newQueueMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	date := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO queues").
		WithArgs(sqlmock.AnyArg(), date, "08:00", "09:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows([]string{"id", "date", "start_time", "end_time", "created_at"}).
		AddRow("queue-1", date, "08:00", "09:00", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM queues WHERE date").
		WithArgs(date, "08:00", "09:00").
		WillReturnRows(rows)

	queue, err := repo.FindOrCreate(context.Background(), date, "08:00", "09:00")
	require.NoError(t, err)
	assert.Equal(t, "queue-1", queue.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryListWaitingEntries(t *testing.T) {
	db, mock, cleanup := newQueueMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "queue_id", "student_id", "schedule_id", "time_slot_id", "receipt_id", "priority_score", "status", "queued_at"}).
		AddRow("entry-1", "queue-1", "student-1", "schedule-1", "slot-1", "receipt-1", 3, models.QueueStatusWaiting, now).
		AddRow("entry-2", "queue-1", "student-2", "schedule-1", "slot-1", "receipt-2", 1, models.QueueStatusWaiting, now.Add(time.Minute))
	mock.ExpectQuery("SELECT (.+) FROM queue_entries WHERE queue_id").
		WithArgs("queue-1", models.QueueStatusWaiting).
		WillReturnRows(rows)

	entries, err := repo.ListWaitingEntries(context.Background(), "queue-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "entry-1", entries[0].ID)
	assert.Equal(t, 3, entries[0].PriorityScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryHasEntry(t *testing.T) {
	db, mock, cleanup := newQueueMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	mock.ExpectQuery("SELECT COUNT(.+) FROM queue_entries").
		WithArgs("queue-1", "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.HasEntry(context.Background(), "queue-1", "student-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryMarkEntriesNotAllocated(t *testing.T) {
	db, mock, cleanup := newQueueMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE queue_entries SET status").
		WithArgs(models.QueueStatusNotAllocated, "entry-1", "entry-2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.MarkEntriesNotAllocated(context.Background(), tx, []string{"entry-1", "entry-2"}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueRepositoryDeleteEntriesSkipsEmptyBatch(t *testing.T) {
	db, mock, cleanup := newQueueMock(t)
	defer cleanup()
	repo := NewQueueRepository(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteEntries(context.Background(), tx, nil))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
