package derive

import (
	"sort"

	"homebooking/internal/models"
)

// FilterAll is the dashboard tab that shows every booking.
const FilterAll = "all"

// FilterUserBookings applies a dashboard tab: "all" (or empty) or a status.
func FilterUserBookings(bookings []models.Booking, tab string) []models.Booking {
	if tab == "" || tab == FilterAll {
		return append([]models.Booking(nil), bookings...)
	}
	return FilterAdminBookings(bookings, models.BookingStatus(tab), "")
}

// UserDashboardStats counts one customer's bookings; spend is completed only.
func UserDashboardStats(bookings []models.Booking) models.UserStats {
	var st models.UserStats
	st.Total = len(bookings)
	for _, b := range bookings {
		switch b.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusCompleted:
			st.Completed++
			st.TotalSpent += b.TotalAmount
		}
	}
	return st
}

func ActiveServices(services []models.Service) []models.Service {
	out := make([]models.Service, 0, len(services))
	for _, s := range services {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// FeaturedServices picks the n best rated active services.
func FeaturedServices(services []models.Service, n int) []models.Service {
	out := ActiveServices(services)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
