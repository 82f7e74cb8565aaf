package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"phone" yaml:"phone"`
	Role      Role      `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	Avatar    string    `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// IsAdmin reports whether the user may use the admin views.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
