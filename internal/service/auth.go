package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

var (
	ErrUserEmailExists  = repository.ErrUserEmailExists
	ErrWrongCredentials = domain.ErrWrongCredentials
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type AuthService struct {
	repo          AuthUserRepository
	campusDomains []string
}

func NewAuthService(repo AuthUserRepository, campus *config.CampusConfig) *AuthService {
	return &AuthService{
		repo:          repo,
		campusDomains: campus.EmailDomains,
	}
}

// Signup registers a participant. IIIT participants must sign up with a campus address.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Role = domain.RoleParticipant

	switch user.ParticipantType {
	case domain.ParticipantIIIT:
		if !s.isCampusEmail(user.Email) {
			return domain.User{}, domain.Invalid("email", "IIIT participants must use a campus email address")
		}
	case domain.ParticipantNonIIIT:
	default:
		return domain.User{}, domain.Invalid("participant_type", "must be IIIT or NON_IIIT")
	}

	return s.create(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrWrongCredentials
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongCredentials
	}
	if user.Disabled {
		return domain.User{}, domain.ErrAccountDisabled
	}

	return user, nil
}

// SeedAdmin creates the configured admin account unless it already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, conf *config.AdminConfig) error {
	if conf.Email == "" {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(conf.Email))
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	admin, err := s.create(ctx, domain.User{
		Email:    email,
		Password: conf.Password,
		Name:     conf.Name,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return err
	}

	zap.L().Info("admin account seeded", zap.Uint("user_id", admin.ID), zap.String("email", admin.Email))

	return nil
}

func (s *AuthService) create(ctx context.Context, user domain.User) (domain.User, error) {
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

func (s *AuthService) isCampusEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	host := email[at+1:]

	for _, d := range s.campusDomains {
		if strings.EqualFold(host, d) {
			return true
		}
	}

	return false
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	return string(hash), nil
}
