package derive

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"homebooking/internal/models"
)

var ErrMalformedPriceRange = errors.New("malformed price range")

type SortMode string

const (
	SortPopular   SortMode = "popular"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
	SortRating    SortMode = "rating"
)

// PriceRange is an inclusive price band; without HasMax it is open-ended.
type PriceRange struct {
	Min    float64
	Max    float64
	HasMax bool
}

func (r PriceRange) Contains(price float64) bool {
	if price < r.Min {
		return false
	}
	return !r.HasMax || price <= r.Max
}

// ParsePriceRange accepts "min-max", "min+" and a bare "min". The empty
// token means no range and returns ok=false with a nil error.
func ParsePriceRange(token string) (r PriceRange, ok bool, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return PriceRange{}, false, nil
	}

	bad := func() (PriceRange, bool, error) {
		return PriceRange{}, false, fmt.Errorf("%w: %q", ErrMalformedPriceRange, token)
	}

	parts := strings.Split(token, "-")
	switch len(parts) {
	case 1:
		minVal, perr := parsePrice(strings.TrimSuffix(parts[0], "+"))
		if perr != nil {
			return bad()
		}
		return PriceRange{Min: minVal}, true, nil
	case 2:
		if strings.HasSuffix(parts[0], "+") {
			return bad()
		}
		minVal, perr := parsePrice(parts[0])
		if perr != nil {
			return bad()
		}
		maxVal, perr := parsePrice(parts[1])
		if perr != nil || maxVal < minVal {
			return bad()
		}
		return PriceRange{Min: minVal, Max: maxVal, HasMax: true}, true, nil
	default:
		return bad()
	}
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("price %q out of range", s)
	}
	return v, nil
}

// ServiceFilter is the services page filter state. Zero value lists every
// active service by popularity.
type ServiceFilter struct {
	Search          string
	CategoryID      string
	PriceRange      string
	Sort            SortMode
	IncludeInactive bool
}

// Validate reports a price token the filter will ignore.
func (f ServiceFilter) Validate() error {
	_, _, err := ParsePriceRange(f.PriceRange)
	return err
}

// FilterServices narrows and orders services. A malformed price token
// disables the price step; check Validate to surface it.
func FilterServices(services []models.Service, f ServiceFilter) []models.Service {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	priceRange, hasRange, _ := ParsePriceRange(f.PriceRange)

	out := make([]models.Service, 0, len(services))
	for _, s := range services {
		if !f.IncludeInactive && !s.IsActive {
			continue
		}
		if search != "" && !matchesService(s, search) {
			continue
		}
		if f.CategoryID != "" && s.Category.ID != f.CategoryID {
			continue
		}
		if hasRange && !priceRange.Contains(s.Price) {
			continue
		}
		out = append(out, s)
	}

	SortServices(out, f.Sort)
	return out
}

func matchesService(s models.Service, needle string) bool {
	return strings.Contains(strings.ToLower(s.Title), needle) ||
		strings.Contains(strings.ToLower(s.Description), needle) ||
		strings.Contains(strings.ToLower(s.Category.Name), needle)
}

// SortServices orders in place. Unknown modes fall back to popularity.
func SortServices(services []models.Service, mode SortMode) {
	var less func(a, b models.Service) bool
	switch mode {
	case SortPriceLow:
		less = func(a, b models.Service) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b models.Service) bool { return a.Price > b.Price }
	case SortRating:
		less = func(a, b models.Service) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b models.Service) bool { return a.ReviewCount > b.ReviewCount }
	}
	sort.SliceStable(services, func(i, j int) bool { return less(services[i], services[j]) })
}

// FilterAdminBookings keeps bookings matching status (empty means any) and
// the free-text search over customer and joined service fields. Order is kept.
func FilterAdminBookings(bookings []models.Booking, status models.BookingStatus, search string) []models.Booking {
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if status != "" && b.Status != status {
			continue
		}
		if needle != "" && !matchesBooking(b, needle) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesBooking(b models.Booking, needle string) bool {
	fields := []string{b.CustomerName, b.CustomerEmail}
	if b.Service != nil {
		fields = append(fields, b.Service.Title, b.Service.Category.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
