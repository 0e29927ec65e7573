package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

var (
	ErrTicketNotFound = domain.ErrTicketNotFound
	ErrTicketExists   = domain.ErrTicketExists
	ErrTicketIDTaken  = errors.New("ticket id already taken")
)

type Ticket struct {
	ID             uint   `gorm:"primaryKey"`
	TicketID       string `gorm:"not null;uniqueIndex:idx_tickets_ticket_id"`
	RegistrationID uint   `gorm:"not null;uniqueIndex:idx_tickets_registration_id"`
	ParticipantID  uint   `gorm:"not null;index"`
	EventID        uint   `gorm:"not null;index"`
	QRPayload      string `gorm:"type:text;not null"`
	QRImage        string `gorm:"type:text;not null"`
	CreatedAt      time.Time
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

func (d *TicketDAO) Insert(ctx context.Context, ticket Ticket) (Ticket, error) {
	result := d.db.WithContext(ctx).Create(&ticket)
	if result.Error != nil {
		switch {
		case isUniqueViolation(result.Error, "idx_tickets_ticket_id"):
			return Ticket{}, ErrTicketIDTaken
		case isUniqueViolation(result.Error, "idx_tickets_registration_id"):
			return Ticket{}, ErrTicketExists
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) ExistsTicketID(ctx context.Context, ticketID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Ticket{}).Where("ticket_id = ?", ticketID).Count(&count).Error

	return count > 0, err
}

func (d *TicketDAO) FindByTicketID(ctx context.Context, ticketID string) (Ticket, error) {
	return d.findOne(ctx, "ticket_id = ?", ticketID)
}

func (d *TicketDAO) FindByRegistrationID(ctx context.Context, registrationID uint) (Ticket, error) {
	return d.findOne(ctx, "registration_id = ?", registrationID)
}

// DeleteByTicketID is idempotent: deleting a missing ticket succeeds.
func (d *TicketDAO) DeleteByTicketID(ctx context.Context, ticketID string) error {
	return d.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Delete(&Ticket{}).Error
}

func (d *TicketDAO) findOne(ctx context.Context, query string, arg any) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).Where(query, arg).First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}
