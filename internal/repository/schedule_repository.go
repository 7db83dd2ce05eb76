package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// ScheduleRepository provides persistence for gym schedules and time slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByDate loads a schedule and its slots for one day.
func (r *ScheduleRepository) FindByDate(ctx context.Context, date time.Time) (*models.ScheduleDetail, error) {
	const scheduleQuery = `SELECT id, date, created_at, updated_at FROM schedules WHERE date = $1`
	var detail models.ScheduleDetail
	if err := r.db.GetContext(ctx, &detail.Schedule, scheduleQuery, date); err != nil {
		return nil, err
	}

	const slotsQuery = `SELECT id, schedule_id, start_time, end_time, available_slots, status, created_at, updated_at FROM time_slots WHERE schedule_id = $1 ORDER BY start_time ASC`
	if err := r.db.SelectContext(ctx, &detail.Slots, slotsQuery, detail.ID); err != nil {
		return nil, fmt.Errorf("load time slots: %w", err)
	}
	return &detail, nil
}

// FindByID loads a schedule and its slots by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	const scheduleQuery = `SELECT id, date, created_at, updated_at FROM schedules WHERE id = $1`
	var detail models.ScheduleDetail
	if err := r.db.GetContext(ctx, &detail.Schedule, scheduleQuery, id); err != nil {
		return nil, err
	}

	const slotsQuery = `SELECT id, schedule_id, start_time, end_time, available_slots, status, created_at, updated_at FROM time_slots WHERE schedule_id = $1 ORDER BY start_time ASC`
	if err := r.db.SelectContext(ctx, &detail.Slots, slotsQuery, detail.ID); err != nil {
		return nil, fmt.Errorf("load time slots: %w", err)
	}
	return &detail, nil
}

// List returns schedules within the date range, slots included.
func (r *ScheduleRepository) List(ctx context.Context, from, to time.Time) ([]models.ScheduleDetail, error) {
	const query = `SELECT id, date, created_at, updated_at FROM schedules WHERE date >= $1 AND date <= $2 ORDER BY date ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, from, to); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	details := make([]models.ScheduleDetail, 0, len(schedules))
	for _, schedule := range schedules {
		detail := models.ScheduleDetail{Schedule: schedule}
		const slotsQuery = `SELECT id, schedule_id, start_time, end_time, available_slots, status, created_at, updated_at FROM time_slots WHERE schedule_id = $1 ORDER BY start_time ASC`
		if err := r.db.SelectContext(ctx, &detail.Slots, slotsQuery, schedule.ID); err != nil {
			return nil, fmt.Errorf("load time slots: %w", err)
		}
		details = append(details, detail)
	}
	return details, nil
}

// Create stores a schedule and its slots in one transaction.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule, slots []models.TimeSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create schedule: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const scheduleInsert = `INSERT INTO schedules (id, date, created_at, updated_at) VALUES (:id, :date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, scheduleInsert, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	const slotInsert = `INSERT INTO time_slots (id, schedule_id, start_time, end_time, available_slots, status, created_at, updated_at) VALUES (:id, :schedule_id, :start_time, :end_time, :available_slots, :status, :created_at, :updated_at)`
	for i := range slots {
		slots[i].ID = uuid.NewString()
		slots[i].ScheduleID = schedule.ID
		if slots[i].Status == "" {
			slots[i].Status = models.TimeSlotStatusAvailable
		}
		slots[i].CreatedAt = now
		slots[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, slotInsert, slots[i]); err != nil {
			return fmt.Errorf("insert time slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create schedule: %w", err)
	}
	return nil
}

// UpdateSlot adjusts a slot's capacity and status outside an allocation run.
func (r *ScheduleRepository) UpdateSlot(ctx context.Context, slotID string, availableSlots int, status string) error {
	const query = `UPDATE time_slots SET available_slots = $1, status = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, availableSlots, status, time.Now().UTC(), slotID)
	if err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update time slot rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("time slot %s: no rows updated", slotID)
	}
	return nil
}

// Delete removes a schedule and its slots.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete schedule: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM time_slots WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete time slots: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("schedule %s: no rows deleted", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete schedule: %w", err)
	}
	return nil
}

// FindSlotForUpdate locks and returns the slot matching the time window on
// the given day. The row lock serialises concurrent allocation passes over
// the same slot until the caller's transaction ends.
func (r *ScheduleRepository) FindSlotForUpdate(ctx context.Context, tx *sqlx.Tx, date time.Time, startTime, endTime string) (*models.TimeSlot, error) {
	const query = `SELECT ts.id, ts.schedule_id, ts.start_time, ts.end_time, ts.available_slots, ts.status, ts.created_at, ts.updated_at FROM time_slots ts JOIN schedules s ON s.id = ts.schedule_id WHERE s.date = $1 AND ts.start_time = $2 AND ts.end_time = $3 FOR UPDATE OF ts`
	var slot models.TimeSlot
	if err := tx.GetContext(ctx, &slot, query, date, startTime, endTime); err != nil {
		return nil, err
	}
	return &slot, nil
}

// UpdateSlotAllocation writes back the capacity consumed by an allocation
// pass. Runs inside the pass transaction.
func (r *ScheduleRepository) UpdateSlotAllocation(ctx context.Context, tx *sqlx.Tx, slotID string, availableSlots int, status string) error {
	const query = `UPDATE time_slots SET available_slots = $1, status = $2, updated_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, query, availableSlots, status, time.Now().UTC(), slotID); err != nil {
		return fmt.Errorf("update slot allocation: %w", err)
	}
	return nil
}
