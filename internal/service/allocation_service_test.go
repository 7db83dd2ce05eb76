package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
)

var allocationDate = time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)

func TestAllocationRunCommitsByPriority(t *testing.T) {
	fixture := newAllocationFixture(t)
	fixture.queues.entries["queue-1"] = []models.QueueEntry{
		{ID: "entry-carol", QueueID: "queue-1", StudentID: "carol", PriorityScore: 1, QueuedAt: allocationDate},
		{ID: "entry-alice", QueueID: "queue-1", StudentID: "alice", PriorityScore: 5, QueuedAt: allocationDate.Add(time.Minute)},
		{ID: "entry-bob", QueueID: "queue-1", StudentID: "bob", PriorityScore: 3, QueuedAt: allocationDate.Add(2 * time.Minute)},
	}
	fixture.schedules.slot = &models.TimeSlot{ID: "slot-1", AvailableSlots: 2, Status: models.TimeSlotStatusAvailable}
	fixture.students.items["carol"] = &models.Student{ID: "carol", UnsuccessfulAttempts: 1, PriorityScore: 1}

	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	summary, err := fixture.service.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.PerQueue, 1)
	assert.Equal(t, 2, summary.TotalAllocated)
	assert.Equal(t, 1, summary.TotalUnallocated)
	assert.Equal(t, 0, summary.SkippedQueues)

	// Highest scores commit first; capacity runs out before carol.
	require.Len(t, fixture.bookings.appended, 2)
	assert.Equal(t, "alice", fixture.bookings.appended[0].StudentID)
	assert.Equal(t, "bob", fixture.bookings.appended[1].StudentID)
	assert.Equal(t, models.BookingStatusAwaitingArrival, fixture.bookings.appended[0].Status)

	assert.Equal(t, 0, fixture.schedules.updatedAvailable)
	assert.Equal(t, models.TimeSlotStatusFullyBooked, fixture.schedules.updatedStatus)

	assert.ElementsMatch(t, []string{"entry-alice", "entry-bob"}, fixture.queues.deleted)
	assert.Equal(t, []string{"entry-carol"}, fixture.queues.marked)

	// The missed student earns starvation credit for the next round.
	assert.Equal(t, 2, fixture.students.items["carol"].UnsuccessfulAttempts)
	assert.Equal(t, 2, fixture.students.items["carol"].PriorityScore)

	require.Len(t, fixture.outcomes.changes, 3)
	assert.Equal(t, models.AllocationStatusAllocated, fixture.outcomes.changes[0].Status)
	assert.Equal(t, models.AllocationStatusAllocated, fixture.outcomes.changes[1].Status)
	failed := fixture.outcomes.changes[2]
	assert.Equal(t, models.AllocationStatusFailed, failed.Status)
	assert.Equal(t, models.ReasonNoSlots, failed.Reason)
	assert.Equal(t, "carol", failed.StudentID)

	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestAllocationRunSkipsQueueWithoutSlot(t *testing.T) {
	fixture := newAllocationFixture(t)
	fixture.queues.entries["queue-1"] = []models.QueueEntry{
		{ID: "entry-alice", QueueID: "queue-1", StudentID: "alice", PriorityScore: 2, QueuedAt: allocationDate},
	}
	fixture.schedules.slot = nil

	fixture.mock.ExpectBegin()
	fixture.mock.ExpectRollback()

	summary, err := fixture.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SkippedQueues)
	assert.Empty(t, summary.PerQueue)
	assert.Empty(t, fixture.bookings.appended)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestAllocationRunSkipsDuplicateWithoutConsumingCapacity(t *testing.T) {
	fixture := newAllocationFixture(t)
	fixture.queues.entries["queue-1"] = []models.QueueEntry{
		{ID: "entry-dave", QueueID: "queue-1", StudentID: "dave", PriorityScore: 7, QueuedAt: allocationDate},
		{ID: "entry-eve", QueueID: "queue-1", StudentID: "eve", PriorityScore: 2, QueuedAt: allocationDate.Add(time.Minute)},
	}
	fixture.schedules.slot = &models.TimeSlot{ID: "slot-1", AvailableSlots: 1, Status: models.TimeSlotStatusAvailable}
	fixture.bookings.existing["dave"] = true

	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	summary, err := fixture.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalAllocated)
	assert.Equal(t, 0, summary.TotalUnallocated)

	require.Len(t, fixture.bookings.appended, 1)
	assert.Equal(t, "eve", fixture.bookings.appended[0].StudentID)

	// Both entries leave the queue; only one seat was consumed.
	assert.ElementsMatch(t, []string{"entry-dave", "entry-eve"}, fixture.queues.deleted)
	assert.Equal(t, 0, fixture.schedules.updatedAvailable)

	// The duplicate produces no fresh outcome.
	require.Len(t, fixture.outcomes.changes, 1)
	assert.Equal(t, "eve", fixture.outcomes.changes[0].StudentID)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestAllocationRunToleratesOutcomeFailures(t *testing.T) {
	fixture := newAllocationFixture(t)
	fixture.queues.entries["queue-1"] = []models.QueueEntry{
		{ID: "entry-alice", QueueID: "queue-1", StudentID: "alice", PriorityScore: 4, QueuedAt: allocationDate},
	}
	fixture.schedules.slot = &models.TimeSlot{ID: "slot-1", AvailableSlots: 5, Status: models.TimeSlotStatusAvailable}
	fixture.outcomes.err = errors.New("boom")

	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	summary, err := fixture.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalAllocated)
	require.Len(t, fixture.bookings.appended, 1)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestAllocationRunLeavesSlotAvailableWhenCapacityRemains(t *testing.T) {
	fixture := newAllocationFixture(t)
	fixture.queues.entries["queue-1"] = []models.QueueEntry{
		{ID: "entry-alice", QueueID: "queue-1", StudentID: "alice", PriorityScore: 4, QueuedAt: allocationDate},
	}
	fixture.schedules.slot = &models.TimeSlot{ID: "slot-1", AvailableSlots: 3, Status: models.TimeSlotStatusAvailable}

	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	_, err := fixture.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fixture.schedules.updatedAvailable)
	assert.Equal(t, models.TimeSlotStatusAvailable, fixture.schedules.updatedStatus)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

// --- Fixtures ---

type allocationFixture struct {
	service   *AllocationService
	queues    *allocationQueueStub
	schedules *allocationScheduleStub
	bookings  *allocationBookingStub
	students  *allocationStudentStub
	outcomes  *outcomeRecorderStub
	mock      sqlmock.Sqlmock
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	txProvider, mock := newTxProviderMock(t)
	queues := &allocationQueueStub{entries: map[string][]models.QueueEntry{}}
	schedules := &allocationScheduleStub{}
	bookings := &allocationBookingStub{existing: map[string]bool{}}
	students := &allocationStudentStub{items: map[string]*models.Student{}}
	outcomes := &outcomeRecorderStub{}

	service := NewAllocationService(queues, schedules, bookings, students, txProvider, outcomes, nil, DefaultPriorityPolicy(), nil, nil)
	return &allocationFixture{
		service:   service,
		queues:    queues,
		schedules: schedules,
		bookings:  bookings,
		students:  students,
		outcomes:  outcomes,
		mock:      mock,
	}
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (m *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

type allocationQueueStub struct {
	entries map[string][]models.QueueEntry
	deleted []string
	marked  []string
}

func (s *allocationQueueStub) ListWithWaiting(ctx context.Context) ([]models.Queue, error) {
	queues := make([]models.Queue, 0, len(s.entries))
	for queueID := range s.entries {
		queues = append(queues, models.Queue{ID: queueID, Date: allocationDate, StartTime: "08:00", EndTime: "09:00"})
	}
	return queues, nil
}

func (s *allocationQueueStub) ListWaitingEntries(ctx context.Context, queueID string) ([]models.QueueEntry, error) {
	return s.entries[queueID], nil
}

func (s *allocationQueueStub) MarkEntriesNotAllocated(ctx context.Context, tx *sqlx.Tx, entryIDs []string) error {
	s.marked = append(s.marked, entryIDs...)
	return nil
}

func (s *allocationQueueStub) DeleteEmpty(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *allocationQueueStub) DeleteEntries(ctx context.Context, tx *sqlx.Tx, entryIDs []string) error {
	s.deleted = append(s.deleted, entryIDs...)
	return nil
}

type allocationScheduleStub struct {
	slot             *models.TimeSlot
	updatedAvailable int
	updatedStatus    string
}

func (s *allocationScheduleStub) FindSlotForUpdate(ctx context.Context, tx *sqlx.Tx, date time.Time, startTime, endTime string) (*models.TimeSlot, error) {
	if s.slot == nil {
		return nil, sql.ErrNoRows
	}
	return s.slot, nil
}

func (s *allocationScheduleStub) UpdateSlotAllocation(ctx context.Context, tx *sqlx.Tx, slotID string, availableSlots int, status string) error {
	s.updatedAvailable = availableSlots
	s.updatedStatus = status
	return nil
}

type allocationBookingStub struct {
	existing map[string]bool
	appended []models.BookingEntry
}

func (s *allocationBookingStub) FindOrCreate(ctx context.Context, tx *sqlx.Tx, date time.Time, startTime, endTime string) (*models.Booking, error) {
	return &models.Booking{ID: "booking-1", Date: date, StartTime: startTime, EndTime: endTime}, nil
}

func (s *allocationBookingStub) HasStudent(ctx context.Context, tx *sqlx.Tx, bookingID, studentID string) (bool, error) {
	return s.existing[studentID], nil
}

func (s *allocationBookingStub) AppendEntry(ctx context.Context, tx *sqlx.Tx, entry *models.BookingEntry) error {
	s.appended = append(s.appended, *entry)
	return nil
}

type allocationStudentStub struct {
	items map[string]*models.Student
}

func (s *allocationStudentStub) FindForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error) {
	student, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func (s *allocationStudentStub) UpdateCounters(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	s.items[student.ID] = student
	return nil
}

type outcomeRecorderStub struct {
	changes []dto.StatusChange
	err     error
}

func (s *outcomeRecorderStub) RecordOutcome(ctx context.Context, change dto.StatusChange) error {
	s.changes = append(s.changes, change)
	return s.err
}
