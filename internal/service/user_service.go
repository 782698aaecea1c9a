package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"library-catalog/internal/domain"
	"library-catalog/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailRequired    = fmt.Errorf("%w: email is required", ErrValidation)
	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrValidation)
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// DeleteUser removes the target user and all their books. Admin only.
	DeleteUser(ctx context.Context, caller *domain.User, targetID int64) error
}

type userService struct {
	users       repository.UserRepository
	adminEmails map[string]struct{}
}

func NewUserService(users repository.UserRepository, adminEmails []string) UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = strings.TrimSpace(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &userService{
		users:       users,
		adminEmails: admins,
	}
}

func (s *userService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = domain.RoleAdmin
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		Role:         role,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Any compare failure, including a malformed stored hash, reads as a
	// credential mismatch to the caller.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *userService) DeleteUser(ctx context.Context, caller *domain.User, targetID int64) error {
	// Existence before authorization: a missing target is not found for
	// everyone, only an existing one can be forbidden.
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleUser:
		return ErrForbidden
	default:
		return ErrForbidden
	}
	return s.users.Delete(ctx, targetID)
}
