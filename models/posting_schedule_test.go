package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchedule() *PostingSchedule {
	return &PostingSchedule{
		AccountID:       1,
		MorningSlot:     "13:00",
		EveningSlot:     "22:00",
		Timezone:        "Asia/Kolkata",
		VarianceMinutes: 15,
	}
}

func TestPostingScheduleValidate(t *testing.T) {
	t.Run("ValidSchedule", func(t *testing.T) {
		assert.NoError(t, validSchedule().Validate())
	})

	t.Run("UnparseableSlot", func(t *testing.T) {
		s := validSchedule()
		s.MorningSlot = "25:00"
		assert.Error(t, s.Validate())

		s = validSchedule()
		s.EveningSlot = "evening"
		assert.Error(t, s.Validate())
	})

	t.Run("UnknownTimezone", func(t *testing.T) {
		s := validSchedule()
		s.Timezone = "Mars/Olympus_Mons"
		assert.Error(t, s.Validate())
	})

	t.Run("NegativeVariance", func(t *testing.T) {
		s := validSchedule()
		s.VarianceMinutes = -1
		assert.Error(t, s.Validate())
	})

	t.Run("EqualSlotsRejected", func(t *testing.T) {
		s := validSchedule()
		s.EveningSlot = s.MorningSlot
		assert.Error(t, s.Validate())
	})

	t.Run("VarianceMustNotOverlapSlots", func(t *testing.T) {
		s := validSchedule()
		s.MorningSlot = "13:00"
		s.EveningSlot = "13:30"
		s.VarianceMinutes = 15
		assert.Error(t, s.Validate())

		s.VarianceMinutes = 14
		assert.NoError(t, s.Validate())
	})
}

func TestPostingScheduleSlots(t *testing.T) {
	s := validSchedule()
	morning, evening, err := s.Slots()
	require.NoError(t, err)
	assert.Equal(t, 13, morning.Hour)
	assert.Equal(t, 0, morning.Minute)
	assert.Equal(t, 22, evening.Hour)
	assert.Equal(t, 0, evening.Minute)
}

func TestPostingScheduleLocation(t *testing.T) {
	s := validSchedule()
	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}
