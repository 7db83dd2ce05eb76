package service

import (
	"github.com/elitheslime01/gymmate-2024/internal/models"
	"github.com/elitheslime01/gymmate-2024/pkg/config"
)

// PriorityPolicy maps a student's history counters to a queue priority
// score. Higher scores are served first; negative scores are valid and
// simply rank below neutral students.
type PriorityPolicy struct {
	// NoShowPenaltyDivisor softens the no-show penalty: one point lost
	// per that many no-shows.
	NoShowPenaltyDivisor int
	// AttendanceDecayDivisor caps the attendance bonus: one point removed
	// per that many attended slots.
	AttendanceDecayDivisor int
	// RedemptionInterval forgives one no-show per that many attended slots.
	RedemptionInterval int
}

// DefaultPriorityPolicy returns the reference coefficients.
func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{
		NoShowPenaltyDivisor:   2,
		AttendanceDecayDivisor: 3,
		RedemptionInterval:     3,
	}
}

// NewPriorityPolicy builds a policy from configuration, falling back to the
// reference coefficients for unset values.
func NewPriorityPolicy(cfg config.AllocationConfig) PriorityPolicy {
	policy := DefaultPriorityPolicy()
	if cfg.NoShowPenaltyDivisor > 0 {
		policy.NoShowPenaltyDivisor = cfg.NoShowPenaltyDivisor
	}
	if cfg.AttendanceDecayDivisor > 0 {
		policy.AttendanceDecayDivisor = cfg.AttendanceDecayDivisor
	}
	if cfg.RedemptionInterval > 0 {
		policy.RedemptionInterval = cfg.RedemptionInterval
	}
	return policy
}

// Score computes the priority score for the given counters.
//
// Brand-new students (all counters zero) score exactly 0: they start
// neutral. Otherwise attendance and past unsuccessful attempts raise the
// score, no-shows lower it at half weight, and a decay term keeps a long
// attendance streak from dominating forever.
func (p PriorityPolicy) Score(student *models.Student) int {
	if student.UnsuccessfulAttempts == 0 && student.AttendedSlots == 0 && student.NoShows == 0 {
		return 0
	}
	return student.AttendedSlots +
		student.UnsuccessfulAttempts -
		student.NoShows/p.NoShowPenaltyDivisor -
		student.AttendedSlots/p.AttendanceDecayDivisor
}

// ApplyUnsuccessful records a failed allocation attempt. Each failure
// raises the student's score for the next round so nobody starves.
func (p PriorityPolicy) ApplyUnsuccessful(student *models.Student) {
	student.UnsuccessfulAttempts++
	student.PriorityScore = p.Score(student)
}

// ApplyNoShow records a missed booking. The unsuccessful-attempt counter
// resets: failing to show up forfeits the accumulated starvation credit,
// while the no-show penalty itself stays.
func (p PriorityPolicy) ApplyNoShow(student *models.Student) {
	student.NoShows++
	student.UnsuccessfulAttempts = 0
	student.PriorityScore = p.Score(student)
}

// ApplyAttended records an attended slot. The unsuccessful-attempt counter
// resets, and every RedemptionInterval-th attended slot forgives one
// no-show.
func (p PriorityPolicy) ApplyAttended(student *models.Student) {
	student.AttendedSlots++
	student.UnsuccessfulAttempts = 0
	if p.RedemptionInterval > 0 && student.AttendedSlots%p.RedemptionInterval == 0 && student.NoShows > 0 {
		student.NoShows--
	}
	student.PriorityScore = p.Score(student)
}
