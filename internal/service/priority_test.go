package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elitheslime01/gymmate-2024/internal/models"
	"github.com/elitheslime01/gymmate-2024/pkg/config"
)

func TestPriorityScoreNewStudentIsNeutral(t *testing.T) {
	policy := DefaultPriorityPolicy()
	student := &models.Student{}
	assert.Equal(t, 0, policy.Score(student))
}

func TestPriorityScoreFormula(t *testing.T) {
	policy := DefaultPriorityPolicy()

	cases := []struct {
		name     string
		student  models.Student
		expected int
	}{
		{"single unsuccessful attempt", models.Student{UnsuccessfulAttempts: 1}, 1},
		{"attendance with decay", models.Student{AttendedSlots: 6}, 4},
		{"no-shows at half weight", models.Student{NoShows: 4}, -2},
		{"mixed history", models.Student{AttendedSlots: 3, UnsuccessfulAttempts: 2, NoShows: 2}, 3},
		{"single no-show rounds down", models.Student{NoShows: 1}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			student := tc.student
			assert.Equal(t, tc.expected, policy.Score(&student))
		})
	}
}

func TestPriorityScoreCanGoNegative(t *testing.T) {
	policy := DefaultPriorityPolicy()
	student := &models.Student{NoShows: 6}
	assert.Equal(t, -3, policy.Score(student))
}

func TestApplyUnsuccessfulRaisesScore(t *testing.T) {
	policy := DefaultPriorityPolicy()
	student := &models.Student{}

	policy.ApplyUnsuccessful(student)
	assert.Equal(t, 1, student.UnsuccessfulAttempts)
	assert.Equal(t, 1, student.PriorityScore)

	policy.ApplyUnsuccessful(student)
	assert.Equal(t, 2, student.UnsuccessfulAttempts)
	assert.Equal(t, 2, student.PriorityScore)
}

func TestApplyNoShowForfeitsStarvationCredit(t *testing.T) {
	policy := DefaultPriorityPolicy()
	student := &models.Student{UnsuccessfulAttempts: 3}

	policy.ApplyNoShow(student)
	assert.Equal(t, 0, student.UnsuccessfulAttempts)
	assert.Equal(t, 1, student.NoShows)
	assert.Equal(t, 0, student.PriorityScore)
}

func TestApplyAttendedForgivesNoShowEveryThird(t *testing.T) {
	policy := DefaultPriorityPolicy()
	student := &models.Student{NoShows: 2}

	policy.ApplyAttended(student)
	policy.ApplyAttended(student)
	assert.Equal(t, 2, student.NoShows)

	// Third attended slot redeems one no-show.
	policy.ApplyAttended(student)
	assert.Equal(t, 1, student.NoShows)
	assert.Equal(t, 3, student.AttendedSlots)
}

func TestApplyAttendedResetsUnsuccessfulAttempts(t *testing.T) {
	policy := DefaultPriorityPolicy()
	student := &models.Student{UnsuccessfulAttempts: 2}

	policy.ApplyAttended(student)
	assert.Equal(t, 0, student.UnsuccessfulAttempts)
	assert.Equal(t, 1, student.AttendedSlots)
	assert.Equal(t, 1, student.PriorityScore)
}

func TestNewPriorityPolicyFallsBackToDefaults(t *testing.T) {
	policy := NewPriorityPolicy(config.AllocationConfig{})
	assert.Equal(t, DefaultPriorityPolicy(), policy)

	tuned := NewPriorityPolicy(config.AllocationConfig{NoShowPenaltyDivisor: 4, AttendanceDecayDivisor: 5, RedemptionInterval: 2})
	assert.Equal(t, 4, tuned.NoShowPenaltyDivisor)
	assert.Equal(t, 5, tuned.AttendanceDecayDivisor)
	assert.Equal(t, 2, tuned.RedemptionInterval)
}
