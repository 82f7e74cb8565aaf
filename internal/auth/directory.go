package auth

import (
	"fmt"
	"sync"
	"time"

	"homebooking/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Account is a login entry: the user it signs in as plus the plaintext
// password, which is hashed on load and never kept.
type Account struct {
	User     models.User
	Password string
}

type entry struct {
	user models.User
	hash []byte
}

// Directory is a fixed set of demo accounts with bcrypt-hashed passwords.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// DefaultAccounts are the two accounts the demo ships with.
func DefaultAccounts() []Account {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []Account{
		{
			User: models.User{
				ID:        "admin-1",
				Name:      "Admin User",
				Email:     "admin@test.com",
				Phone:     "+1234567890",
				Role:      models.RoleAdmin,
				CreatedAt: created,
			},
			Password: "admin",
		},
		{
			User: models.User{
				ID:        "user-1",
				Name:      "John Doe",
				Email:     "user@test.com",
				Phone:     "+1234567890",
				Role:      models.RoleUser,
				CreatedAt: created,
			},
			Password: "user",
		},
	}
}

// NewDirectory hashes every account password with the given bcrypt cost.
// A cost of 0 means bcrypt.DefaultCost.
func NewDirectory(accounts []Account, cost int) (*Directory, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	d := &Directory{entries: make(map[string]entry, len(accounts))}
	for _, acc := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", acc.User.Email, err)
		}
		d.entries[acc.User.Email] = entry{user: acc.User, hash: hash}
	}
	return d, nil
}

// Authenticate returns a copy of the matching user. Emails match exactly.
func (d *Directory) Authenticate(email, password string) (*models.User, bool) {
	d.mu.RLock()
	e, ok := d.entries[email]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(e.hash, []byte(password)) != nil {
		return nil, false
	}
	u := e.user
	return &u, true
}

// Lookup finds a user by id without checking credentials.
func (d *Directory) Lookup(userID string) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries {
		if e.user.ID == userID {
			return e.user, true
		}
	}
	return models.User{}, false
}
