package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/elitheslime01/gymmate-2024/internal/dto"
	"github.com/elitheslime01/gymmate-2024/internal/models"
	appErrors "github.com/elitheslime01/gymmate-2024/pkg/errors"
)

type scheduleRepository interface {
	FindByDate(ctx context.Context, date time.Time) (*models.ScheduleDetail, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleDetail, error)
	List(ctx context.Context, from, to time.Time) ([]models.ScheduleDetail, error)
	Create(ctx context.Context, schedule *models.Schedule, slots []models.TimeSlot) error
	UpdateSlot(ctx context.Context, slotID string, availableSlots int, status string) error
	Delete(ctx context.Context, id string) error
}

const scheduleCachePattern = "schedules:*"

// ScheduleService manages gym days and their bookable windows, with a
// read-through cache on the per-date lookup.
type ScheduleService struct {
	schedules scheduleRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService wires schedule management dependencies.
func NewScheduleService(schedules scheduleRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{schedules: schedules, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// GetByDate returns the schedule for one day, slots included.
func (s *ScheduleService) GetByDate(ctx context.Context, date time.Time) (*models.ScheduleDetail, error) {
	key := fmt.Sprintf("schedules:date:%s", date.Format("2006-01-02"))
	var cached models.ScheduleDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	detail, err := s.schedules.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedule for date")
		}
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	if err := s.cache.Set(ctx, key, detail, s.cacheTTL); err != nil {
		s.logger.Warn("schedule cache set failed", zap.String("key", key), zap.Error(err))
	}
	return detail, nil
}

// List returns schedules between two dates.
func (s *ScheduleService) List(ctx context.Context, from, to time.Time) ([]models.ScheduleDetail, error) {
	return s.schedules.List(ctx, from, to)
}

// Create stores a new gym day with its slots.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*models.ScheduleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	if _, err := s.schedules.FindByDate(ctx, date); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "schedule already exists for date")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check schedule: %w", err)
	}

	schedule := &models.Schedule{Date: date}
	slots := make([]models.TimeSlot, 0, len(req.Slots))
	for _, input := range req.Slots {
		slots = append(slots, models.TimeSlot{
			StartTime:      input.StartTime,
			EndTime:        input.EndTime,
			AvailableSlots: input.AvailableSlots,
			Status:         models.TimeSlotStatusAvailable,
		})
	}
	if err := s.schedules.Create(ctx, schedule, slots); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.invalidate(ctx)
	return &models.ScheduleDetail{Schedule: *schedule, Slots: slots}, nil
}

// UpdateSlot adjusts a slot's remaining capacity and availability label.
func (s *ScheduleService) UpdateSlot(ctx context.Context, slotID string, req dto.UpdateTimeSlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	if err := s.schedules.UpdateSlot(ctx, slotID, req.AvailableSlots, req.Status); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a gym day and its slots.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.schedules.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return fmt.Errorf("load schedule: %w", err)
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *ScheduleService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, scheduleCachePattern); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.Error(err))
	}
}
