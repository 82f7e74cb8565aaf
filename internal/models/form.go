package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidForm = errors.New("invalid booking form")

// BookingForm is what the customer fills in on the booking page.
type BookingForm struct {
	ServiceID     string `json:"serviceId"`
	Date          string `json:"date"`
	TimeSlot      string `json:"timeSlot"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	CustomerEmail string `json:"customerEmail"`
	Address       string `json:"address"`
	Notes         string `json:"notes,omitempty"`
}

// Validate requires every field except notes and a YYYY-MM-DD date.
func (f *BookingForm) Validate() error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"serviceId", f.ServiceID},
		{"date", f.Date},
		{"timeSlot", f.TimeSlot},
		{"customerName", f.CustomerName},
		{"customerPhone", f.CustomerPhone},
		{"customerEmail", f.CustomerEmail},
		{"address", f.Address},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidForm, strings.Join(missing, ", "))
	}

	if _, err := time.Parse(DateLayout, f.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidForm)
	}
	if !IsSlotLabel(f.TimeSlot) {
		return fmt.Errorf("%w: unknown time slot %q", ErrInvalidForm, f.TimeSlot)
	}
	return nil
}
