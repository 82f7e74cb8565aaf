package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("done")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{BookingStatus("bogus"), StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusPending, StatusConfirmed))

	err := ValidateTransition(StatusCompleted, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "completed -> pending")

	err = ValidateTransition(StatusPending, "archived")
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, BookingStatus("x").IsTerminal())

	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "x", BookingStatus("x").Label())

	next, ok := NextStatus(StatusConfirmed)
	assert.True(t, ok)
	assert.Equal(t, StatusInProgress, next)
	_, ok = NextStatus(StatusCompleted)
	assert.False(t, ok)
}

func TestBookingFormValidate(t *testing.T) {
	valid := BookingForm{
		ServiceID:     "service-1",
		Date:          "2024-02-01",
		TimeSlot:      "10:00 AM",
		CustomerName:  "John Smith",
		CustomerPhone: "+1234567890",
		CustomerEmail: "john@email.com",
		Address:       "123 Main Street",
	}

	t.Run("Valid", func(t *testing.T) {
		f := valid
		assert.NoError(t, f.Validate())
	})

	t.Run("NotesOptional", func(t *testing.T) {
		f := valid
		f.Notes = ""
		assert.NoError(t, f.Validate())
	})

	t.Run("MissingFields", func(t *testing.T) {
		f := valid
		f.CustomerName = " "
		f.Address = ""
		err := f.Validate()
		assert.ErrorIs(t, err, ErrInvalidForm)
		assert.Contains(t, err.Error(), "customerName, address")
	})

	t.Run("BadDate", func(t *testing.T) {
		f := valid
		f.Date = "01/02/2024"
		assert.ErrorIs(t, f.Validate(), ErrInvalidForm)
	})

	t.Run("UnknownSlot", func(t *testing.T) {
		f := valid
		f.TimeSlot = "07:00 AM"
		assert.ErrorIs(t, f.Validate(), ErrInvalidForm)
	})
}

func TestServiceClone(t *testing.T) {
	s := Service{ID: "s", Features: []string{"a"}}
	c := s.Clone()
	c.Features[0] = "b"
	assert.Equal(t, "a", s.Features[0])
}

func TestBookingDraftNextStep(t *testing.T) {
	d := &BookingDraft{}
	assert.Equal(t, StepSelectService, d.NextStep())

	d.Form.ServiceID = "service-1"
	assert.Equal(t, StepSelectDate, d.NextStep())

	d.Form.Date = "2024-02-01"
	assert.Equal(t, StepSelectSlot, d.NextStep())

	d.Form.TimeSlot = "09:00 AM"
	assert.Equal(t, StepContact, d.NextStep())

	d.Form.CustomerName = "A"
	d.Form.CustomerPhone = "1"
	d.Form.CustomerEmail = "a@b.c"
	d.Form.Address = "x"
	assert.Equal(t, StepConfirm, d.NextStep())
}
