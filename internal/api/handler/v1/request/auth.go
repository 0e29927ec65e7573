package request

import (
	"errors"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

const (
	passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d)(?=.*[^A-Za-z\d\s]).{8,}$`
)

var passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)

var (
	errInvalidPassword         = errors.New("the password must be at least 8 characters and contain 1 letter, 1 number and 1 symbol")
	errConfirmPasswordMismatch = errors.New("confirm password doesn't match the password")
)

func init() {
	passwordExp.MatchTimeout = 100 * time.Millisecond
}

type SignupRequest struct {
	Email           string                 `json:"email"`
	Password        string                 `json:"password"`
	ConfirmPassword string                 `json:"confirm_password"`
	Name            string                 `json:"name"`
	ParticipantType domain.ParticipantType `json:"participant_type"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.ConfirmPassword, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(2, 80)),
		validation.Field(&req.ParticipantType, validation.Required,
			validation.In(domain.ParticipantIIIT, domain.ParticipantNonIIIT)),
	)
	if err != nil {
		return err
	}

	return validatePassword(req.Password, req.ConfirmPassword)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

type CreateOrganizerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
}

func (req *CreateOrganizerRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.ConfirmPassword, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(2, 80)),
	)
	if err != nil {
		return err
	}

	return validatePassword(req.Password, req.ConfirmPassword)
}

type SetDisabledRequest struct {
	Disabled *bool `json:"disabled"`
}

func (req *SetDisabledRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Disabled, validation.NotNil),
	)
}

func validatePassword(password, confirm string) error {
	ok, err := passwordExp.MatchString(password)
	if err != nil || !ok {
		return errInvalidPassword
	}

	if password != confirm {
		return errConfirmPasswordMismatch
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (req *SignupRequest) ToUser() domain.User {
	return domain.User{
		Email:           normalizeEmail(req.Email),
		Password:        req.Password,
		Name:            strings.TrimSpace(req.Name),
		ParticipantType: req.ParticipantType,
	}
}

func (req *CreateOrganizerRequest) ToUser() domain.User {
	return domain.User{
		Email:    normalizeEmail(req.Email),
		Password: req.Password,
		Name:     strings.TrimSpace(req.Name),
	}
}
