// Package service holds the application logic behind each route. Handlers
// resolve the caller into a models.Identity and pass it in explicitly.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"microblog/internal/models"
	"microblog/internal/observability"
	"microblog/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxUsernameLen = 30

type UserService struct {
	userRepo repository.UserRepository
	clock    Clock
}

type RegisterInput struct {
	Username string
}

type LoginInput struct {
	Username string
}

func NewUserService(userRepo repository.UserRepository, clock Clock) *UserService {
	if clock == nil {
		clock = SystemClock
	}
	return &UserService{userRepo: userRepo, clock: clock}
}

func normalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("Username is required")
	}
	if utf8.RuneCountInString(name) > maxUsernameLen {
		return "", models.NewValidationError("Username too long (max 30 characters)")
	}
	return name, nil
}

// Register creates a user. A taken username surfaces as a CONFLICT error from
// the unique index; there is no separate existence check.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	name, err := normalizeUsername(in.Username)
	if err != nil {
		observability.Registrations.WithLabelValues("invalid").Inc()
		return nil, err
	}

	user = &models.User{Username: name, MemberSince: s.clock.Now()}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			observability.Registrations.WithLabelValues("conflict").Inc()
		} else {
			observability.Registrations.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("user.id", int(user.ID)))
	observability.Registrations.WithLabelValues("created").Inc()
	return user, nil
}

// Login looks the username up; unknown names are UNAUTHORIZED.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	name := strings.TrimSpace(in.Username)
	if name == "" {
		observability.Logins.WithLabelValues("unknown").Inc()
		return nil, models.NewUnauthorizedError("Invalid username")
	}

	user, err := s.userRepo.GetByUsername(ctx, name)
	if err != nil {
		observability.Logins.WithLabelValues("error").Inc()
		return nil, err
	}
	if user == nil {
		observability.Logins.WithLabelValues("unknown").Inc()
		return nil, models.NewUnauthorizedError("Invalid username")
	}

	observability.Logins.WithLabelValues("ok").Inc()
	return user, nil
}

// Identify resolves a session's user id. Ids that no longer match a user
// yield a zero Identity rather than an error.
func (s *UserService) Identify(ctx context.Context, userID uint) (models.Identity, error) {
	if userID == 0 {
		return models.Identity{}, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return models.Identity{}, nil
		}
		return models.Identity{}, err
	}
	return models.Identity{UserID: user.ID, Username: user.Username}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
