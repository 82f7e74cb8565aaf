package models

import "time"

type Booking struct {
	ID            string        `json:"id" yaml:"id"`
	UserID        string        `json:"userId" yaml:"user_id"`
	ServiceID     string        `json:"serviceId" yaml:"service_id"`
	Date          string        `json:"date" yaml:"date"`          // YYYY-MM-DD
	TimeSlot      string        `json:"timeSlot" yaml:"time_slot"` // one of SlotLabels
	Status        BookingStatus `json:"status" yaml:"status"`
	CustomerName  string        `json:"customerName" yaml:"customer_name"`
	CustomerPhone string        `json:"customerPhone" yaml:"customer_phone"`
	CustomerEmail string        `json:"customerEmail" yaml:"customer_email"`
	Address       string        `json:"address" yaml:"address"`
	Notes         string        `json:"notes,omitempty" yaml:"notes,omitempty"`
	TotalAmount   float64       `json:"totalAmount" yaml:"total_amount"`
	CreatedAt     time.Time     `json:"createdAt" yaml:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" yaml:"updated_at"`

	// Service is joined at read time and never stored.
	Service *Service `json:"service,omitempty" yaml:"-"`
}

type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Day parses the booking date in the given location.
func (b *Booking) Day(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, b.Date, loc)
}
