package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elitheslime01/gymmate-2024/internal/models"
)

// BookingRepository provides persistence for bookings and their entries.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// FindOrCreate returns the booking for the (date, time window) pair inside
// the allocation transaction, creating it when absent.
func (r *BookingRepository) FindOrCreate(ctx context.Context, tx *sqlx.Tx, date time.Time, startTime, endTime string) (*models.Booking, error) {
	const insert = `INSERT INTO bookings (id, date, start_time, end_time, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (date, start_time, end_time) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), date, startTime, endTime, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	const query = `SELECT id, date, start_time, end_time, created_at FROM bookings WHERE date = $1 AND start_time = $2 AND end_time = $3`
	var booking models.Booking
	if err := tx.GetContext(ctx, &booking, query, date, startTime, endTime); err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return &booking, nil
}

// HasStudent reports, inside the allocation transaction, whether the student
// is already committed to the booking.
func (r *BookingRepository) HasStudent(ctx context.Context, tx *sqlx.Tx, bookingID, studentID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM booking_entries WHERE booking_id = $1 AND student_id = $2`
	var count int
	if err := tx.GetContext(ctx, &count, query, bookingID, studentID); err != nil {
		return false, fmt.Errorf("check booking entry: %w", err)
	}
	return count > 0, nil
}

// AppendEntry commits one student to the booking inside the allocation
// transaction.
func (r *BookingRepository) AppendEntry(ctx context.Context, tx *sqlx.Tx, entry *models.BookingEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.BookingStatusAwaitingArrival
	}
	const query = `INSERT INTO booking_entries (id, booking_id, student_id, schedule_id, time_slot_id, receipt_id, priority_score, status, time_in, time_out) VALUES (:id, :booking_id, :student_id, :schedule_id, :time_slot_id, :receipt_id, :priority_score, :status, :time_in, :time_out)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append booking entry: %w", err)
	}
	return nil
}

// HasStudentForDate reports whether the student already holds a booking for
// the (date, time window) pair. Used as the enqueue precondition, outside
// any allocation transaction.
func (r *BookingRepository) HasStudentForDate(ctx context.Context, studentID string, date time.Time, startTime, endTime string) (bool, error) {
	const query = `SELECT COUNT(*) FROM booking_entries be JOIN bookings b ON b.id = be.booking_id WHERE be.student_id = $1 AND b.date = $2 AND b.start_time = $3 AND b.end_time = $4`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, date, startTime, endTime); err != nil {
		return false, fmt.Errorf("check student booking: %w", err)
	}
	return count > 0, nil
}

// FindByID loads a booking and its entries.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.BookingDetail, error) {
	const bookingQuery = `SELECT id, date, start_time, end_time, created_at FROM bookings WHERE id = $1`
	var detail models.BookingDetail
	if err := r.db.GetContext(ctx, &detail.Booking, bookingQuery, id); err != nil {
		return nil, err
	}

	const entriesQuery = `SELECT id, booking_id, student_id, schedule_id, time_slot_id, receipt_id, priority_score, status, time_in, time_out FROM booking_entries WHERE booking_id = $1 ORDER BY priority_score DESC`
	if err := r.db.SelectContext(ctx, &detail.Entries, entriesQuery, id); err != nil {
		return nil, fmt.Errorf("load booking entries: %w", err)
	}
	return &detail, nil
}

// ListByDate returns all bookings for one day, entries included.
func (r *BookingRepository) ListByDate(ctx context.Context, date time.Time) ([]models.BookingDetail, error) {
	const query = `SELECT id, date, start_time, end_time, created_at FROM bookings WHERE date = $1 ORDER BY start_time ASC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, date); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	details := make([]models.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		detail := models.BookingDetail{Booking: booking}
		const entriesQuery = `SELECT id, booking_id, student_id, schedule_id, time_slot_id, receipt_id, priority_score, status, time_in, time_out FROM booking_entries WHERE booking_id = $1 ORDER BY priority_score DESC`
		if err := r.db.SelectContext(ctx, &detail.Entries, entriesQuery, booking.ID); err != nil {
			return nil, fmt.Errorf("load booking entries: %w", err)
		}
		details = append(details, detail)
	}
	return details, nil
}

// CurrentForStudent returns the student's upcoming booking entries from the
// given day forward.
func (r *BookingRepository) CurrentForStudent(ctx context.Context, studentID string, from time.Time) ([]models.BookingEntry, error) {
	const query = `SELECT be.id, be.booking_id, be.student_id, be.schedule_id, be.time_slot_id, be.receipt_id, be.priority_score, be.status, be.time_in, be.time_out FROM booking_entries be JOIN bookings b ON b.id = be.booking_id WHERE be.student_id = $1 AND b.date >= $2 ORDER BY b.date ASC, b.start_time ASC`
	var entries []models.BookingEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, from); err != nil {
		return nil, fmt.Errorf("list student bookings: %w", err)
	}
	return entries, nil
}

// FindEntry loads one booking entry.
func (r *BookingRepository) FindEntry(ctx context.Context, entryID string) (*models.BookingEntry, error) {
	const query = `SELECT id, booking_id, student_id, schedule_id, time_slot_id, receipt_id, priority_score, status, time_in, time_out FROM booking_entries WHERE id = $1`
	var entry models.BookingEntry
	if err := r.db.GetContext(ctx, &entry, query, entryID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntryStatus transitions a booking entry's lifecycle state and stamps
// the check-in/out times when given.
func (r *BookingRepository) UpdateEntryStatus(ctx context.Context, entryID, status string, timeIn, timeOut *time.Time) error {
	const query = `UPDATE booking_entries SET status = $1, time_in = COALESCE($2, time_in), time_out = COALESCE($3, time_out) WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, timeIn, timeOut, entryID)
	if err != nil {
		return fmt.Errorf("update booking entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking entry rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking entry %s: no rows updated", entryID)
	}
	return nil
}
