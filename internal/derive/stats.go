package derive

import (
	"math"
	"sort"
	"time"

	"homebooking/internal/models"
)

// AdminStatsFor aggregates the admin dashboard figures. Revenue counts only
// completed bookings; monthly revenue further requires createdAt to fall in
// now's calendar month, evaluated in now's location.
func AdminStatsFor(bookings []models.Booking, services []models.Service, now time.Time) models.AdminStats {
	stats := models.AdminStats{TotalBookings: len(bookings)}

	for _, b := range bookings {
		switch b.Status {
		case models.StatusPending:
			stats.PendingBookings++
		case models.StatusCompleted:
			stats.CompletedBookings++
			stats.TotalRevenue += b.TotalAmount
			created := b.CreatedAt.In(now.Location())
			if created.Year() == now.Year() && created.Month() == now.Month() {
				stats.MonthlyRevenue += b.TotalAmount
			}
		}
	}

	stats.PopularServices = PopularServices(bookings, services, models.PopularServicesLimit)
	return stats
}

// PopularServices ranks services by how many bookings reference them. Ties
// keep catalog order.
func PopularServices(bookings []models.Booking, services []models.Service, limit int) []models.PopularService {
	counts := make(map[string]int, len(services))
	for _, b := range bookings {
		counts[b.ServiceID]++
	}

	ranked := make([]models.PopularService, 0, len(services))
	for _, s := range services {
		ranked = append(ranked, models.PopularService{Service: s, BookingCount: counts[s.ID]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BookingCount > ranked[j].BookingCount
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// AverageBookingValue is total revenue over all bookings, rounded; zero
// when there are no bookings.
func AverageBookingValue(stats models.AdminStats) float64 {
	if stats.TotalBookings == 0 {
		return 0
	}
	return math.Round(stats.TotalRevenue / float64(stats.TotalBookings))
}

// MaxBookingCount is the top count among popular services, used to scale
// bars. An empty list gives 1 so it is always safe to divide by.
func MaxBookingCount(popular []models.PopularService) int {
	if len(popular) == 0 {
		return 1
	}
	top := 0
	for _, p := range popular {
		if p.BookingCount > top {
			top = p.BookingCount
		}
	}
	return top
}
