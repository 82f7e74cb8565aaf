package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"homebooking/internal/models"
	"homebooking/internal/store"

	"gopkg.in/yaml.v2"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type serviceFixture struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	CategoryID  string   `yaml:"category_id"`
	Price       float64  `yaml:"price"`
	Duration    int      `yaml:"duration"`
	Image       string   `yaml:"image"`
	IsActive    bool     `yaml:"is_active"`
	Features    []string `yaml:"features"`
	Rating      float64  `yaml:"rating"`
	ReviewCount int      `yaml:"review_count"`
}

// Fixtures is the decoded seed file.
type Fixtures struct {
	AutoLogin  *models.User             `yaml:"auto_login"`
	Categories []models.ServiceCategory `yaml:"categories"`
	Services   []serviceFixture         `yaml:"services"`
	Bookings   []models.Booking         `yaml:"bookings"`
}

// Load reads fixtures from path, or the embedded defaults when path is empty.
func Load(path string) (*Fixtures, error) {
	data := defaultFixtures
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) validate() error {
	categories := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.ID == "" {
			return fmt.Errorf("category %q has empty id", c.Name)
		}
		if categories[c.ID] {
			return fmt.Errorf("duplicate category id: %s", c.ID)
		}
		categories[c.ID] = true
	}

	services := make(map[string]bool, len(f.Services))
	for _, s := range f.Services {
		if s.ID == "" {
			return fmt.Errorf("service %q has empty id", s.Title)
		}
		if services[s.ID] {
			return fmt.Errorf("duplicate service id: %s", s.ID)
		}
		if !categories[s.CategoryID] {
			return fmt.Errorf("service %s references unknown category %s", s.ID, s.CategoryID)
		}
		services[s.ID] = true
	}

	for _, b := range f.Bookings {
		if !services[b.ServiceID] {
			return fmt.Errorf("booking %s references unknown service %s", b.ID, b.ServiceID)
		}
		if !b.Status.Valid() {
			return fmt.Errorf("booking %s: %w: %q", b.ID, models.ErrUnknownStatus, b.Status)
		}
	}
	return nil
}

// State converts the fixtures into the store's initial state. now stamps
// the auto-login user's creation time.
func (f *Fixtures) State(now time.Time) store.State {
	byID := make(map[string]models.ServiceCategory, len(f.Categories))
	for _, c := range f.Categories {
		byID[c.ID] = c
	}

	services := make([]models.Service, 0, len(f.Services))
	for _, s := range f.Services {
		services = append(services, models.Service{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Category:    byID[s.CategoryID],
			Price:       s.Price,
			Duration:    s.Duration,
			Image:       s.Image,
			IsActive:    s.IsActive,
			Features:    append([]string(nil), s.Features...),
			Rating:      s.Rating,
			ReviewCount: s.ReviewCount,
		})
	}

	state := store.State{
		Services:   services,
		Categories: append([]models.ServiceCategory(nil), f.Categories...),
		Bookings:   append([]models.Booking(nil), f.Bookings...),
	}
	if f.AutoLogin != nil {
		u := *f.AutoLogin
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		state.CurrentUser = &u
	}
	return state
}
