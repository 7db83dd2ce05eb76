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

func newStatusMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAllocationStatusRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newStatusMock(t)
	defer cleanup()
	repo := NewAllocationStatusRepository(db)

	mock.ExpectExec("INSERT INTO allocation_statuses").
		WithArgs(sqlmock.AnyArg(), "student-1", "booking-1", models.AllocationStatusAllocated, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.AllocationStatus{
		StudentID: "student-1",
		BookingID: "booking-1",
		Status:    models.AllocationStatusAllocated,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationStatusRepositoryUpsertKeepsID(t *testing.T) {
	db, mock, cleanup := newStatusMock(t)
	defer cleanup()
	repo := NewAllocationStatusRepository(db)

	mock.ExpectExec("INSERT INTO allocation_statuses").
		WithArgs("status-1", "student-1", "", models.AllocationStatusWaiting, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := &models.AllocationStatus{ID: "status-1", StudentID: "student-1", Status: models.AllocationStatusWaiting}
	err := repo.Upsert(context.Background(), status)
	require.NoError(t, err)
	assert.Equal(t, "status-1", status.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationStatusRepositoryFindCurrent(t *testing.T) {
	db, mock, cleanup := newStatusMock(t)
	defer cleanup()
	repo := NewAllocationStatusRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "booking_id", "status", "reason", "allocated_at", "created_at", "updated_at"}).
		AddRow("status-1", "student-1", "booking-1", models.AllocationStatusAllocated, nil, now, now, now)
	mock.ExpectQuery("SELECT (.+) FROM allocation_statuses WHERE student_id").
		WithArgs("student-1").
		WillReturnRows(rows)

	status, err := repo.FindCurrent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.AllocationStatusAllocated, status.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
