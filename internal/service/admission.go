package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

var (
	ErrRegistrationNotFound = repository.ErrRegistrationNotFound
	ErrRegistrationFull     = repository.ErrRegistrationFull
	ErrAlreadyRegistered    = repository.ErrAlreadyRegistered
)

type RegistrationRepository interface {
	CreateWithCapacity(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error)
	List(ctx context.Context, filter repository.RegistrationFilter) ([]domain.Registration, error)
	CountConfirmed(ctx context.Context, eventID uint) (int64, error)
	CountAll(ctx context.Context, eventID uint) (int64, error)
	CountAttended(ctx context.Context, eventID uint) (int64, error)
	Update(ctx context.Context, reg domain.Registration) (domain.Registration, error)
	Delete(ctx context.Context, id uint) error
	MarkAttended(ctx context.Context, id, by uint, at time.Time) (bool, error)
	SetAttendance(ctx context.Context, id uint, mark domain.AttendanceMark) error
	CompleteEvent(ctx context.Context, eventID uint) (int64, error)
}

// gate loads the snapshot the admission checks decide on.
type gate struct {
	regs RegistrationRepository
	now  func() time.Time
}

// snapshot returns the admission input for caller and the registration the
// caller already holds, if any.
func (g gate) snapshot(ctx context.Context, ev domain.Event, caller domain.Identity) (domain.AdmissionInput, *domain.Registration, error) {
	confirmed, err := g.regs.CountConfirmed(ctx, ev.ID)
	if err != nil {
		return domain.AdmissionInput{}, nil, fmt.Errorf("g.regs.CountConfirmed -> %w", err)
	}

	var existing *domain.Registration
	reg, err := g.regs.FindByParticipant(ctx, ev.ID, caller.UserID)
	switch {
	case err == nil:
		existing = &reg
	case !errors.Is(err, ErrRegistrationNotFound):
		return domain.AdmissionInput{}, nil, fmt.Errorf("g.regs.FindByParticipant -> %w", err)
	}

	return domain.AdmissionInput{
		Event:             ev,
		Caller:            caller,
		ConfirmedCount:    confirmed,
		AlreadyRegistered: existing != nil,
		Now:               g.now(),
	}, existing, nil
}

// check runs the fail-fast gate used before any write.
func (g gate) check(ctx context.Context, ev domain.Event, caller domain.Identity) error {
	in, _, err := g.snapshot(ctx, ev, caller)
	if err != nil {
		return err
	}

	return domain.CheckAdmission(in)
}
