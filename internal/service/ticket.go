package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository"
)

var (
	ErrTicketNotFound = repository.ErrTicketNotFound
	ErrTicketIDTaken  = repository.ErrTicketIDTaken
)

const ticketIDPrefix = "TKT-"

type TicketRepository interface {
	Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error)
	ExistsTicketID(ctx context.Context, ticketID string) (bool, error)
	FindByTicketID(ctx context.Context, ticketID string) (domain.Ticket, error)
	FindByRegistrationID(ctx context.Context, registrationID uint) (domain.Ticket, error)
	Delete(ctx context.Context, ticketID string) error
}

// TicketIssuer allocates credential ids and renders the QR code of a ticket.
type TicketIssuer struct {
	repo        TicketRepository
	maxAttempts int
	qrSize      int
	newID       func() string
}

func NewTicketIssuer(repo TicketRepository, conf *config.TicketConfig) *TicketIssuer {
	return &TicketIssuer{
		repo:        repo,
		maxAttempts: conf.MaxAttempts,
		qrSize:      conf.QRSize,
		newID:       newTicketID,
	}
}

func newTicketID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")

	return ticketIDPrefix + strings.ToUpper(hex[:12])
}

// Issue creates the ticket of reg. It gives up with domain.ErrCredentialExhausted
// when no free credential id turns up within the configured attempts.
func (i *TicketIssuer) Issue(ctx context.Context, reg domain.Registration) (domain.Ticket, error) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		id := i.newID()

		taken, err := i.repo.ExistsTicketID(ctx, id)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("i.repo.ExistsTicketID -> %w", err)
		}
		if taken {
			zap.L().Warn("ticket id collision", zap.String("ticket_id", id), zap.Int("attempt", attempt))
			continue
		}

		ticket, err := i.render(id, reg)
		if err != nil {
			return domain.Ticket{}, err
		}

		created, err := i.repo.Create(ctx, ticket)
		if errors.Is(err, ErrTicketIDTaken) {
			continue
		}
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("i.repo.Create -> %w", err)
		}

		return created, nil
	}

	return domain.Ticket{}, domain.ErrCredentialExhausted
}

// Revoke deletes a ticket. Missing tickets are not an error.
func (i *TicketIssuer) Revoke(ctx context.Context, ticketID string) error {
	if err := i.repo.Delete(ctx, ticketID); err != nil {
		return fmt.Errorf("i.repo.Delete -> %w", err)
	}

	return nil
}

func (i *TicketIssuer) render(id string, reg domain.Registration) (domain.Ticket, error) {
	payload, err := domain.TicketPayload{
		TicketID:       id,
		RegistrationID: reg.ID,
		ParticipantID:  reg.ParticipantID,
		EventID:        reg.EventID,
	}.Encode()
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("payload.Encode -> %w", err)
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, i.qrSize)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return domain.Ticket{
		TicketID:       id,
		RegistrationID: reg.ID,
		ParticipantID:  reg.ParticipantID,
		EventID:        reg.EventID,
		QRPayload:      payload,
		QRImage:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// TicketService serves tickets to the people allowed to see them.
type TicketService struct {
	tickets TicketRepository
	events  EventRepository
}

func NewTicketService(tickets TicketRepository, events EventRepository) *TicketService {
	return &TicketService{
		tickets: tickets,
		events:  events,
	}
}

func (s *TicketService) Get(ctx context.Context, caller domain.Identity, ticketID string) (domain.Ticket, error) {
	ticket, err := s.tickets.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.tickets.FindByTicketID -> %w", err)
	}

	if ticket.ParticipantID == caller.UserID || caller.IsAdmin() {
		return ticket, nil
	}

	ev, err := s.events.FindByID(ctx, ticket.EventID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}
	if !caller.CanManage(ev) {
		return domain.Ticket{}, domain.ErrNotRecordOwner
	}

	return ticket, nil
}
