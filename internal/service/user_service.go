package service

import (
	"context"
	"errors"
	"time"

	"homebooking/internal/domain"
	"homebooking/internal/metrics"
	"homebooking/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginThrottled     = errors.New("too many login attempts")
)

type UserService struct {
	session  domain.SessionStore
	limiter  domain.RateLimiter
	attempts int
	window   time.Duration
	logger   *zerolog.Logger
}

// NewUserService wires login throttling; a nil limiter or attempts <= 0
// disables it.
func NewUserService(session domain.SessionStore, limiter domain.RateLimiter, attempts int, window time.Duration, logger *zerolog.Logger) *UserService {
	return &UserService{
		session:  session,
		limiter:  limiter,
		attempts: attempts,
		window:   window,
		logger:   logger,
	}
}

// Login signs a user in. Attempts are counted per email whether they
// succeed or not.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, error) {
	if s.limiter != nil && s.attempts > 0 {
		allowed, err := s.limiter.CheckRateLimit(ctx, "login:"+email, s.attempts, s.window)
		if err != nil {
			// A broken limiter must not lock everyone out.
			s.logger.Warn().Err(err).Msg("login rate limit check failed")
		} else if !allowed {
			metrics.IncLogin("throttled")
			s.logger.Warn().Str("email", email).Msg("login throttled")
			return models.User{}, ErrLoginThrottled
		}
	}

	if !s.session.Login(email, password) {
		metrics.IncLogin("failed")
		s.logger.Info().Str("email", email).Msg("login failed")
		return models.User{}, ErrInvalidCredentials
	}

	user, _ := s.session.CurrentUser()
	metrics.IncLogin("ok")
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return user, nil
}

func (s *UserService) Logout(ctx context.Context) {
	if user, ok := s.session.CurrentUser(); ok {
		s.logger.Info().Str("user_id", user.ID).Msg("user logged out")
	}
	s.session.Logout()
}

func (s *UserService) CurrentUser() (models.User, bool) {
	return s.session.CurrentUser()
}
