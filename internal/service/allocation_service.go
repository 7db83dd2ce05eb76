package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
)

type allocationQueueRepository interface {
	ListWithWaiting(ctx context.Context) ([]models.Queue, error)
	ListWaitingEntries(ctx context.Context, queueID string) ([]models.QueueEntry, error)
	MarkEntriesNotAllocated(ctx context.Context, tx *sqlx.Tx, entryIDs []string) error
	DeleteEntries(ctx context.Context, tx *sqlx.Tx, entryIDs []string) error
	DeleteEmpty(ctx context.Context) (int64, error)
}

type allocationScheduleRepository interface {
	FindSlotForUpdate(ctx context.Context, tx *sqlx.Tx, date time.Time, startTime, endTime string) (*models.TimeSlot, error)
	UpdateSlotAllocation(ctx context.Context, tx *sqlx.Tx, slotID string, availableSlots int, status string) error
}

type allocationBookingRepository interface {
	FindOrCreate(ctx context.Context, tx *sqlx.Tx, date time.Time, startTime, endTime string) (*models.Booking, error)
	HasStudent(ctx context.Context, tx *sqlx.Tx, bookingID, studentID string) (bool, error)
	AppendEntry(ctx context.Context, tx *sqlx.Tx, entry *models.BookingEntry) error
}

type allocationStudentRepository interface {
	FindForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error)
	UpdateCounters(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// outcomeRecorder persists status changes and triggers notifications after
// a queue's transaction commits.
type outcomeRecorder interface {
	RecordOutcome(ctx context.Context, change dto.StatusChange) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// AllocationService turns waiting queues into committed bookings. Each
// (date, time window) queue is processed in its own transaction: the time
// slot row is locked, students leave an in-memory max-heap in priority
// order, and capacity is decremented per commitment. Status records and
// notifications happen after commit and never fail a pass.
type AllocationService struct {
	queues    allocationQueueRepository
	schedules allocationScheduleRepository
	bookings  allocationBookingRepository
	students  allocationStudentRepository
	tx        txProvider
	outcomes  outcomeRecorder
	cache     cacheInvalidator
	policy    PriorityPolicy
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAllocationService wires the allocation engine's dependencies.
func NewAllocationService(
	queues allocationQueueRepository,
	schedules allocationScheduleRepository,
	bookings allocationBookingRepository,
	students allocationStudentRepository,
	tx txProvider,
	outcomes outcomeRecorder,
	cache cacheInvalidator,
	policy PriorityPolicy,
	metrics *MetricsService,
	logger *zap.Logger,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		queues:    queues,
		schedules: schedules,
		bookings:  bookings,
		students:  students,
		tx:        tx,
		outcomes:  outcomes,
		cache:     cache,
		policy:    policy,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run processes every queue with waiting entries. A failure inside one
// queue's transaction rolls that queue back and moves on; the summary
// reports it as skipped.
func (s *AllocationService) Run(ctx context.Context) (*dto.AllocationRunSummary, error) {
	start := time.Now()

	queues, err := s.queues.ListWithWaiting(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}

	summary := &dto.AllocationRunSummary{
		PerQueue: make([]dto.QueueAllocationResult, 0, len(queues)),
		RanAt:    start.UTC(),
	}

	for _, queue := range queues {
		result, changes, err := s.allocateQueue(ctx, queue)
		if err != nil {
			s.logger.Error("queue allocation failed",
				zap.String("queue_id", queue.ID),
				zap.String("date", queue.Date.Format("2006-01-02")),
				zap.String("start_time", queue.StartTime),
				zap.Error(err))
			summary.SkippedQueues++
			continue
		}
		if result == nil {
			summary.SkippedQueues++
			continue
		}

		summary.PerQueue = append(summary.PerQueue, *result)
		summary.TotalAllocated += result.Allocated
		summary.TotalUnallocated += result.Unallocated
		summary.StatusChanges = append(summary.StatusChanges, changes...)

		// Side effects run after the queue's transaction committed; a
		// failed status write or notification must not undo bookings.
		for _, change := range changes {
			if err := s.outcomes.RecordOutcome(ctx, change); err != nil {
				s.logger.Warn("outcome recording failed",
					zap.String("student_id", change.StudentID),
					zap.String("status", change.Status),
					zap.Error(err))
			}
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveAllocationRun(summary.TotalAllocated, summary.TotalUnallocated, time.Since(start))
	}

	// Slot capacities changed, so cached schedule reads are stale.
	if s.cache != nil && summary.TotalAllocated > 0 {
		if err := s.cache.Invalidate(ctx, scheduleCachePattern); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.Error(err))
		}
	}

	if pruned, err := s.queues.DeleteEmpty(ctx); err != nil {
		s.logger.Warn("queue pruning failed", zap.Error(err))
	} else if pruned > 0 {
		s.logger.Info("empty queues pruned", zap.Int64("count", pruned))
	}

	s.logger.Info("allocation run finished",
		zap.Int("queues", len(summary.PerQueue)),
		zap.Int("allocated", summary.TotalAllocated),
		zap.Int("unallocated", summary.TotalUnallocated),
		zap.Int("skipped", summary.SkippedQueues))
	return summary, nil
}

// allocateQueue runs one queue's pass. A nil result with nil error means the
// queue had nothing to do or no matching slot exists.
func (s *AllocationService) allocateQueue(ctx context.Context, queue models.Queue) (*dto.QueueAllocationResult, []dto.StatusChange, error) {
	entries, err := s.queues.ListWaitingEntries(ctx, queue.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, nil
	}

	queueKey := fmt.Sprintf("%s %s-%s", queue.Date.Format("2006-01-02"), queue.StartTime, queue.EndTime)
	if s.metrics != nil {
		s.metrics.ObserveQueueDepth(queueKey, len(entries))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin allocation: %w", err)
	}
	defer tx.Rollback()

	// The row lock serialises concurrent passes over the same slot.
	slot, err := s.schedules.FindSlotForUpdate(ctx, tx, queue.Date, queue.StartTime, queue.EndTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("no time slot for queue, skipping",
				zap.String("queue_id", queue.ID),
				zap.String("key", queueKey))
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("lock time slot: %w", err)
	}

	heap := newEntryHeap(len(entries))
	for _, entry := range entries {
		heap.Insert(entry)
	}

	available := slot.AvailableSlots
	var (
		booking       *models.Booking
		allocatedIDs  []string
		remainingIDs  []string
		changes       []dto.StatusChange
		allocated     int
		unallocated   int
		slotsConsumed bool
	)

	for {
		entry, ok := heap.ExtractMax()
		if !ok {
			break
		}

		if available <= 0 {
			unallocated++
			remainingIDs = append(remainingIDs, entry.ID)
			change, err := s.recordMiss(ctx, tx, entry)
			if err != nil {
				return nil, nil, err
			}
			changes = append(changes, change)
			continue
		}

		if booking == nil {
			booking, err = s.bookings.FindOrCreate(ctx, tx, queue.Date, queue.StartTime, queue.EndTime)
			if err != nil {
				return nil, nil, fmt.Errorf("find or create booking: %w", err)
			}
		}

		already, err := s.bookings.HasStudent(ctx, tx, booking.ID, entry.StudentID)
		if err != nil {
			return nil, nil, fmt.Errorf("check duplicate: %w", err)
		}
		if already {
			// Already committed elsewhere: drop the entry without
			// consuming capacity or emitting a fresh outcome.
			allocatedIDs = append(allocatedIDs, entry.ID)
			continue
		}

		if err := s.bookings.AppendEntry(ctx, tx, &models.BookingEntry{
			BookingID:     booking.ID,
			StudentID:     entry.StudentID,
			ScheduleID:    entry.ScheduleID,
			TimeSlotID:    entry.TimeSlotID,
			ReceiptID:     entry.ReceiptID,
			PriorityScore: entry.PriorityScore,
			Status:        models.BookingStatusAwaitingArrival,
		}); err != nil {
			return nil, nil, fmt.Errorf("append booking entry: %w", err)
		}

		available--
		allocated++
		slotsConsumed = true
		allocatedIDs = append(allocatedIDs, entry.ID)
		changes = append(changes, dto.StatusChange{
			StudentID: entry.StudentID,
			BookingID: booking.ID,
			Status:    models.AllocationStatusAllocated,
		})
	}

	slotStatus := slot.Status
	if available == 0 && slotsConsumed {
		slotStatus = models.TimeSlotStatusFullyBooked
	}
	if err := s.schedules.UpdateSlotAllocation(ctx, tx, slot.ID, available, slotStatus); err != nil {
		return nil, nil, err
	}

	if err := s.queues.DeleteEntries(ctx, tx, allocatedIDs); err != nil {
		return nil, nil, err
	}
	if err := s.queues.MarkEntriesNotAllocated(ctx, tx, remainingIDs); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit allocation: %w", err)
	}

	return &dto.QueueAllocationResult{
		QueueID:     queue.ID,
		Date:        queue.Date.Format("2006-01-02"),
		StartTime:   queue.StartTime,
		EndTime:     queue.EndTime,
		Allocated:   allocated,
		Unallocated: unallocated,
	}, changes, nil
}

// recordMiss bumps the student's unsuccessful-attempt counter under a row
// lock and produces the failure status change for post-commit recording.
func (s *AllocationService) recordMiss(ctx context.Context, tx *sqlx.Tx, entry models.QueueEntry) (dto.StatusChange, error) {
	student, err := s.students.FindForUpdate(ctx, tx, entry.StudentID)
	if err != nil {
		return dto.StatusChange{}, fmt.Errorf("lock student: %w", err)
	}
	s.policy.ApplyUnsuccessful(student)
	if err := s.students.UpdateCounters(ctx, tx, student); err != nil {
		return dto.StatusChange{}, err
	}

	return dto.StatusChange{
		StudentID: entry.StudentID,
		Status:    models.AllocationStatusFailed,
		Reason:    models.ReasonNoSlots,
	}, nil
}
