package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetDisabled(ctx context.Context, id uint, disabled bool) (domain.User, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

// GetUser returns an active account. Disabled accounts are refused.
func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if user.Disabled {
		return domain.User{}, domain.ErrAccountDisabled
	}

	return user, nil
}

func (s *UserService) CreateOrganizer(ctx context.Context, caller domain.Identity, user domain.User) (domain.User, error) {
	if !caller.IsAdmin() {
		return domain.User{}, domain.ErrPermission
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Role = domain.RoleOrganizer
	user.ParticipantType = ""

	hashedPassword, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hashedPassword

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *UserService) ListOrganizers(ctx context.Context, caller domain.Identity) ([]domain.User, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrPermission
	}

	users, err := s.repo.FindByRole(ctx, domain.RoleOrganizer)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByRole -> %w", err)
	}

	return users, nil
}

// SetOrganizerDisabled enables or disables an organizer account.
func (s *UserService) SetOrganizerDisabled(ctx context.Context, caller domain.Identity, id uint, disabled bool) (domain.User, error) {
	if !caller.IsAdmin() {
		return domain.User{}, domain.ErrPermission
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if user.Role != domain.RoleOrganizer {
		return domain.User{}, ErrUserNotFound
	}

	updated, err := s.repo.SetDisabled(ctx, id, disabled)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.SetDisabled -> %w", err)
	}

	return updated, nil
}
