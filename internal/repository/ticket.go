package repository

import (
	"context"
	"fmt"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository/dao"
)

var (
	ErrTicketNotFound = dao.ErrTicketNotFound
	ErrTicketExists   = dao.ErrTicketExists
	ErrTicketIDTaken  = dao.ErrTicketIDTaken
)

type TicketDAO interface {
	Insert(ctx context.Context, ticket dao.Ticket) (dao.Ticket, error)
	ExistsTicketID(ctx context.Context, ticketID string) (bool, error)
	FindByTicketID(ctx context.Context, ticketID string) (dao.Ticket, error)
	FindByRegistrationID(ctx context.Context, registrationID uint) (dao.Ticket, error)
	DeleteByTicketID(ctx context.Context, ticketID string) error
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	created, err := r.dao.Insert(ctx, dao.Ticket{
		TicketID:       t.TicketID,
		RegistrationID: t.RegistrationID,
		ParticipantID:  t.ParticipantID,
		EventID:        t.EventID,
		QRPayload:      t.QRPayload,
		QRImage:        t.QRImage,
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *TicketRepository) ExistsTicketID(ctx context.Context, ticketID string) (bool, error) {
	ok, err := r.dao.ExistsTicketID(ctx, ticketID)
	if err != nil {
		return false, fmt.Errorf("r.dao.ExistsTicketID -> %w", err)
	}

	return ok, nil
}

func (r *TicketRepository) FindByTicketID(ctx context.Context, ticketID string) (domain.Ticket, error) {
	found, err := r.dao.FindByTicketID(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByTicketID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *TicketRepository) FindByRegistrationID(ctx context.Context, registrationID uint) (domain.Ticket, error) {
	found, err := r.dao.FindByRegistrationID(ctx, registrationID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByRegistrationID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *TicketRepository) Delete(ctx context.Context, ticketID string) error {
	if err := r.dao.DeleteByTicketID(ctx, ticketID); err != nil {
		return fmt.Errorf("r.dao.DeleteByTicketID -> %w", err)
	}

	return nil
}

func (r *TicketRepository) daoToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		TicketID:       t.TicketID,
		RegistrationID: t.RegistrationID,
		ParticipantID:  t.ParticipantID,
		EventID:        t.EventID,
		QRPayload:      t.QRPayload,
		QRImage:        t.QRImage,
		CreatedAt:      t.CreatedAt,
	}
}
