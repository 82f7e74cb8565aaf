package models

import "time"

const (
	StepSelectService = "select_service"
	StepSelectDate    = "select_date"
	StepSelectSlot    = "select_slot"
	StepContact       = "contact"
	StepConfirm       = "confirm"
)

// BookingDraft keeps a partially filled booking form between page visits.
type BookingDraft struct {
	UserID    string      `json:"userId"`
	Step      string      `json:"step"`
	Form      BookingForm `json:"form"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// NextStep infers how far the customer got from the filled fields.
func (d *BookingDraft) NextStep() string {
	f := d.Form
	switch {
	case f.ServiceID == "":
		return StepSelectService
	case f.Date == "":
		return StepSelectDate
	case f.TimeSlot == "":
		return StepSelectSlot
	case f.CustomerName == "" || f.CustomerPhone == "" || f.CustomerEmail == "" || f.Address == "":
		return StepContact
	default:
		return StepConfirm
	}
}
