package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

type BlobStore interface {
	Put(ctx context.Context, in domain.BlobUpload) (domain.Blob, error)
	Stat(ctx context.Context, id string) (domain.Blob, error)
	Get(ctx context.Context, id string) (domain.Blob, []byte, error)
	Delete(ctx context.Context, id string) error
}

type Notifier interface {
	Confirm(ctx context.Context, c domain.Confirmation) error
}

// UserLookup resolves participants for confirmation mail.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

// Timeouts bound the calls made to collaborators outside the process.
type Timeouts struct {
	External     time.Duration
	Compensation time.Duration
}

func TimeoutsFromConfig(conf *config.ExternalConfig) Timeouts {
	return Timeouts{
		External:     conf.Timeout,
		Compensation: conf.CompensationTimeout,
	}
}

// RegisterInput is a registration for a NORMAL event. Files holds the uploads
// attached to the request, keyed by form field id.
type RegisterInput struct {
	TeamName  string
	Responses map[string]json.RawMessage
	Files     map[string]domain.BlobUpload
}

// Admission is a registration together with the ticket it was issued.
type Admission struct {
	Registration domain.Registration `json:"registration"`
	Ticket       *domain.Ticket      `json:"ticket,omitempty"`
}

type RegistrationService struct {
	events   EventRepository
	regs     RegistrationRepository
	tickets  TicketRepository
	blobs    BlobStore
	timeouts Timeouts
	gate     gate
	fulfil   fulfiller
}

func NewRegistrationService(
	events EventRepository,
	regs RegistrationRepository,
	tickets TicketRepository,
	users UserLookup,
	blobs BlobStore,
	issuer *TicketIssuer,
	notifier Notifier,
	timeouts Timeouts,
) *RegistrationService {
	return &RegistrationService{
		events:   events,
		regs:     regs,
		tickets:  tickets,
		blobs:    blobs,
		timeouts: timeouts,
		gate:     gate{regs: regs, now: time.Now},
		fulfil:   fulfiller{issuer: issuer, users: users, notifier: notifier, timeout: timeouts.External},
	}
}

// Register runs the registration saga for a NORMAL event: validate the form,
// upload files, create the registration, issue the ticket and send the
// confirmation. A failure after the first side effect undoes all of them.
func (s *RegistrationService) Register(ctx context.Context, caller domain.Identity, eventID uint, in RegisterInput) (Admission, error) {
	if caller.Role != domain.RoleParticipant {
		return Admission{}, domain.ErrParticipantOnly
	}

	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return Admission{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if ev.Type != domain.EventNormal {
		return Admission{}, domain.Invalid("event_id", "merchandise events take purchases, not registrations")
	}
	if err = s.gate.check(ctx, ev, caller); err != nil {
		return Admission{}, err
	}

	attached := make(map[string]domain.FileAnswer, len(in.Files))
	for fieldID, f := range in.Files {
		attached[fieldID] = domain.FileAnswer{Name: f.Name, MimeType: f.MimeType, Size: int64(len(f.Data))}
	}

	responses, err := ev.FormSchema.ValidateResponses(in.Responses, attached, s.resolver(ctx, caller))
	if err != nil {
		return Admission{}, err
	}

	sg := newSaga("registration", s.timeouts.Compensation)

	for fieldID, f := range in.Files {
		f.OwnerID = caller.UserID
		f.EventID = ev.ID

		blob, err := s.blobs.Put(ctx, f)
		if err != nil {
			return Admission{}, sg.abort(ctx, fmt.Errorf("s.blobs.Put -> %w", err))
		}
		sg.onRollback("delete blob "+blob.ID, func(ctx context.Context) error {
			return s.blobs.Delete(ctx, blob.ID)
		})
		responses[fieldID] = blob.Answer()
	}

	reg, err := s.regs.CreateWithCapacity(ctx, domain.Registration{
		ParticipantID: caller.UserID,
		EventID:       ev.ID,
		Status:        domain.RegistrationRegistered,
		TeamName:      in.TeamName,
		Responses:     responses,
	})
	if err != nil {
		return Admission{}, sg.abort(ctx, fmt.Errorf("s.regs.CreateWithCapacity -> %w", err))
	}
	sg.onRollback("delete registration", func(ctx context.Context) error {
		return s.regs.Delete(ctx, reg.ID)
	})

	ticket, err := s.fulfil.issueAndConfirm(ctx, sg, ev, reg, domain.ConfirmRegistration)
	if err != nil {
		return Admission{}, err
	}

	return Admission{Registration: reg, Ticket: &ticket}, nil
}

// ListForEvent is for the event's organizer and admins.
func (s *RegistrationService) ListForEvent(ctx context.Context, caller domain.Identity, eventID uint) ([]domain.Registration, error) {
	if _, err := loadManaged(ctx, s.events, caller, eventID); err != nil {
		return nil, err
	}

	regs, err := s.regs.List(ctx, repository.RegistrationFilter{EventID: eventID})
	if err != nil {
		return nil, fmt.Errorf("s.regs.List -> %w", err)
	}

	return regs, nil
}

// ListMine returns the caller's registrations with their tickets.
func (s *RegistrationService) ListMine(ctx context.Context, caller domain.Identity) ([]Admission, error) {
	regs, err := s.regs.List(ctx, repository.RegistrationFilter{ParticipantID: caller.UserID})
	if err != nil {
		return nil, fmt.Errorf("s.regs.List -> %w", err)
	}

	out := make([]Admission, 0, len(regs))
	for _, reg := range regs {
		a := Admission{Registration: reg}

		ticket, err := s.tickets.FindByRegistrationID(ctx, reg.ID)
		switch {
		case err == nil:
			a.Ticket = &ticket
		case !errors.Is(err, ErrTicketNotFound):
			return nil, fmt.Errorf("s.tickets.FindByRegistrationID -> %w", err)
		}
		out = append(out, a)
	}

	return out, nil
}

// resolver looks up files the caller uploaded earlier. Files owned by someone
// else are reported as missing.
func (s *RegistrationService) resolver(ctx context.Context, caller domain.Identity) domain.BlobResolver {
	return func(fileID string) (domain.FileAnswer, error) {
		blob, err := s.blobs.Stat(ctx, fileID)
		if err != nil {
			return domain.FileAnswer{}, fmt.Errorf("s.blobs.Stat -> %w", err)
		}
		if blob.OwnerID != caller.UserID {
			return domain.FileAnswer{}, domain.ErrBlobNotFound
		}

		return blob.Answer(), nil
	}
}

// fulfiller issues tickets and sends confirmations at the end of a saga.
type fulfiller struct {
	issuer   *TicketIssuer
	users    UserLookup
	notifier Notifier
	timeout  time.Duration
}

// issueAndConfirm finishes a saga: ticket, then confirmation mail. On failure
// it aborts sg and returns the original error.
func (f fulfiller) issueAndConfirm(ctx context.Context, sg *saga, ev domain.Event, reg domain.Registration, kind domain.ConfirmationKind) (domain.Ticket, error) {
	ticket, err := f.issuer.Issue(ctx, reg)
	if err != nil {
		return domain.Ticket{}, sg.abort(ctx, fmt.Errorf("f.issuer.Issue -> %w", err))
	}
	sg.onRollback("revoke ticket "+ticket.TicketID, func(ctx context.Context) error {
		return f.issuer.Revoke(ctx, ticket.TicketID)
	})

	if err = f.confirm(ctx, ev, reg, ticket, kind); err != nil {
		return domain.Ticket{}, sg.abort(ctx, err)
	}

	return ticket, nil
}

func (f fulfiller) confirm(ctx context.Context, ev domain.Event, reg domain.Registration, ticket domain.Ticket, kind domain.ConfirmationKind) error {
	user, err := f.users.FindByID(ctx, reg.ParticipantID)
	if err != nil {
		return fmt.Errorf("f.users.FindByID -> %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = f.notifier.Confirm(ctx, domain.Confirmation{
		Kind:      kind,
		Email:     user.Email,
		Name:      user.Name,
		EventID:   ev.ID,
		EventName: ev.Name,
		TicketID:  ticket.TicketID,
	})
	if err != nil {
		return fmt.Errorf("f.notifier.Confirm -> %w", asDelivery(err))
	}

	return nil
}

func asDelivery(err error) error {
	if errors.Is(err, domain.ErrDelivery) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
}
