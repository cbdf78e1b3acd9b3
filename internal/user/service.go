package user

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, error)
	CheckPassword(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	log := logger.ForMethod(ctx, "service", "Register")

	username := strings.TrimSpace(input.Username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		IsStaff:      input.IsStaff,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		log.Warn("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	log.Info("register service completed", zap.Uint("user_id", u.ID))
	return u, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*User{}
	}
	return users, nil
}

// CheckPassword verifies credentials without telling apart an unknown email
// and a wrong password.
func (s *service) CheckPassword(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		logger.ForMethod(ctx, "service", "CheckPassword").Info("email not found")
		return nil, ErrInvalidCredentials
	}
	if !CheckPasswordHash(password, u.PasswordHash) {
		logger.ForMethod(ctx, "service", "CheckPassword").Info("password not match")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
