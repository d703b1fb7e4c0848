package users

import (
	"context"
	"errors"
	"strings"

	"stock-admin/internal/application/auth"
	"stock-admin/internal/constants"
	"stock-admin/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("Email is already registered")

// Service manages admin accounts.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client // optional; role changes sign the target out when set
}

// Create stores a new user with a bcrypt password hash. Role defaults to viewer.
// The input must already have passed validation.UserSchema.
func (s *Service) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = constants.Viewer
	}
	u := &domain.User{
		Email:        email,
		Fullname:     strings.TrimSpace(in.Fullname),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateRole applies rc after the role governance checks and signs the target out
// everywhere so the new role takes effect on next login.
func (s *Service) UpdateRole(ctx context.Context, rc RoleChange) (*domain.User, error) {
	target, err := s.checkRoleChange(ctx, rc)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(target).Update("role", rc.Role).Error; err != nil {
		return nil, err
	}
	target.Role = rc.Role
	if err := DestroyUserSessions(ctx, s.Rdb, target.ID.String()); err != nil {
		log.Warn().Err(err).Str("user_id", target.ID.String()).Msg("session invalidation failed")
	}
	return target, nil
}

// List returns all users ordered by creation time.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := s.DB.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureOwner creates an owner account when the users table is empty, so a fresh
// install can log in. Does nothing when email is empty or users exist.
func (s *Service) EnsureOwner(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	u, err := s.Create(ctx, domain.UserInput{Email: email, Fullname: "Owner", Password: password, Role: constants.Owner})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", u.ID.String()).Str("email", u.Email).Msg("created bootstrap owner")
	return nil
}
