package models

type ServiceCategory struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon" yaml:"icon"`
	Description string `json:"description" yaml:"description"`
}

// Service is a bookable offering. The category is embedded by value rather
// than referenced, so a later category edit does not change existing services.
type Service struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Category    ServiceCategory `json:"category" yaml:"category"`
	Price       float64         `json:"price" yaml:"price"`
	Duration    int             `json:"duration" yaml:"duration"` // minutes
	Image       string          `json:"image" yaml:"image"`
	IsActive    bool            `json:"isActive" yaml:"is_active"`
	Features    []string        `json:"features" yaml:"features"`
	Rating      float64         `json:"rating" yaml:"rating"`
	ReviewCount int             `json:"reviewCount" yaml:"review_count"`
}

// Clone returns a deep copy so snapshot readers never share the features slice.
func (s Service) Clone() Service {
	if s.Features != nil {
		s.Features = append([]string(nil), s.Features...)
	}
	return s
}
