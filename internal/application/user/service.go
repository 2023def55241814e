package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domain "github.com/barterhub/barterhub/internal/domain/user"
)

// Service handles member registration and profiles.
type Service struct {
	repo   domain.Repository
	logger zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domain.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput defines self-service registration input.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	City        string
}

// UpdateInput defines profile update input.
type UpdateInput struct {
	DisplayName *string
	City        *string
	Plan        *domain.Plan
	Status      *domain.Status
}

// Register creates an active member on the free plan.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := domain.NormalizeUsername(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password, username); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("username already taken")
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := domain.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		City:         strings.TrimSpace(input.City),
		Role:         domain.RoleMember,
		Plan:         domain.PlanFree,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.UserID.String()).Str("username", u.Username).Msg("user registered")
	return u, nil
}

// Update changes profile fields; plan and status changes are admin-side.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, input UpdateInput) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user not found: %s", userID)
	}
	if input.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.City != nil {
		u.City = strings.TrimSpace(*input.City)
	}
	if input.Plan != nil {
		if err := domain.ValidatePlan(*input.Plan); err != nil {
			return nil, err
		}
		u.Plan = *input.Plan
	}
	if input.Status != nil {
		if err := domain.ValidateStatus(*input.Status); err != nil {
			return nil, err
		}
		u.Status = *input.Status
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword replaces the password after validation.
func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user not found: %s", userID)
	}
	if err := domain.ValidatePassword(password, u.Username); err != nil {
		return err
	}
	hash, err := domain.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, u)
}

// GetUser retrieves a user by id.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// GetByUsername retrieves a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetByUsername(ctx, domain.NormalizeUsername(username))
}

// ListUsers lists users for the admin surface.
func (s *Service) ListUsers(ctx context.Context, filter domain.Filter, limit, offset int) ([]*domain.User, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// Count returns the total number of users.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
