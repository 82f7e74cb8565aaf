package models

type PopularService struct {
	Service      Service `json:"service"`
	BookingCount int     `json:"bookingCount"`
}

// AdminStats is always recomputed from the current collections.
type AdminStats struct {
	TotalBookings     int              `json:"totalBookings"`
	PendingBookings   int              `json:"pendingBookings"`
	CompletedBookings int              `json:"completedBookings"`
	TotalRevenue      float64          `json:"totalRevenue"`
	MonthlyRevenue    float64          `json:"monthlyRevenue"`
	PopularServices   []PopularService `json:"popularServices"`
}

// UserStats backs the customer dashboard counters.
type UserStats struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Completed  int     `json:"completed"`
	TotalSpent float64 `json:"totalSpent"`
}
