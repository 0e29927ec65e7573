package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository/dao"
)

var (
	ErrRegistrationNotFound = dao.ErrRegistrationNotFound
	ErrRegistrationFull     = dao.ErrRegistrationFull
	ErrAlreadyRegistered    = dao.ErrAlreadyRegistered
)

type RegistrationDAO interface {
	InsertWithCapacity(ctx context.Context, reg dao.Registration) (dao.Registration, error)
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByParticipant(ctx context.Context, eventID, participantID uint) (dao.Registration, error)
	List(ctx context.Context, filter dao.RegistrationFilter) ([]dao.Registration, error)
	CountConfirmed(ctx context.Context, eventID uint) (int64, error)
	CountAll(ctx context.Context, eventID uint) (int64, error)
	CountAttended(ctx context.Context, eventID uint) (int64, error)
	Update(ctx context.Context, reg dao.Registration) (dao.Registration, error)
	Delete(ctx context.Context, id uint) error
	MarkAttended(ctx context.Context, id, by uint, at time.Time) (bool, error)
	SetAttendance(ctx context.Context, id uint, attended bool, at *time.Time, by *uint) error
	CompleteEvent(ctx context.Context, eventID uint) (int64, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

type RegistrationFilter struct {
	EventID       uint
	ParticipantID uint
	PaymentStatus domain.PaymentStatus
}

func (r *RegistrationRepository) CreateWithCapacity(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	row, err := r.domainToDAO(reg)
	if err != nil {
		return domain.Registration{}, err
	}

	created, err := r.dao.InsertWithCapacity(ctx, row)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertWithCapacity -> %w", err)
	}

	return r.daoToDomain(created)
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found)
}

func (r *RegistrationRepository) FindByParticipant(ctx context.Context, eventID, participantID uint) (domain.Registration, error) {
	found, err := r.dao.FindByParticipant(ctx, eventID, participantID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByParticipant -> %w", err)
	}

	return r.daoToDomain(found)
}

func (r *RegistrationRepository) List(ctx context.Context, filter RegistrationFilter) ([]domain.Registration, error) {
	found, err := r.dao.List(ctx, dao.RegistrationFilter{
		EventID:       filter.EventID,
		ParticipantID: filter.ParticipantID,
		PaymentStatus: string(filter.PaymentStatus),
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	regs := make([]domain.Registration, 0, len(found))
	for _, f := range found {
		reg, err := r.daoToDomain(f)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	return regs, nil
}

func (r *RegistrationRepository) CountConfirmed(ctx context.Context, eventID uint) (int64, error) {
	n, err := r.dao.CountConfirmed(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountConfirmed -> %w", err)
	}

	return n, nil
}

func (r *RegistrationRepository) CountAll(ctx context.Context, eventID uint) (int64, error) {
	n, err := r.dao.CountAll(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountAll -> %w", err)
	}

	return n, nil
}

func (r *RegistrationRepository) CountAttended(ctx context.Context, eventID uint) (int64, error) {
	n, err := r.dao.CountAttended(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountAttended -> %w", err)
	}

	return n, nil
}

func (r *RegistrationRepository) Update(ctx context.Context, reg domain.Registration) (domain.Registration, error) {
	row, err := r.domainToDAO(reg)
	if err != nil {
		return domain.Registration{}, err
	}

	updated, err := r.dao.Update(ctx, row)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated)
}

func (r *RegistrationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) MarkAttended(ctx context.Context, id, by uint, at time.Time) (bool, error) {
	ok, err := r.dao.MarkAttended(ctx, id, by, at)
	if err != nil {
		return false, fmt.Errorf("r.dao.MarkAttended -> %w", err)
	}

	return ok, nil
}

func (r *RegistrationRepository) SetAttendance(ctx context.Context, id uint, mark domain.AttendanceMark) error {
	if err := r.dao.SetAttendance(ctx, id, mark.Attended, mark.AttendedAt, mark.AttendedBy); err != nil {
		return fmt.Errorf("r.dao.SetAttendance -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) CompleteEvent(ctx context.Context, eventID uint) (int64, error) {
	n, err := r.dao.CompleteEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CompleteEvent -> %w", err)
	}

	return n, nil
}

func (r *RegistrationRepository) domainToDAO(reg domain.Registration) (dao.Registration, error) {
	var responses []byte
	if len(reg.Responses) > 0 {
		b, err := json.Marshal(reg.Responses)
		if err != nil {
			return dao.Registration{}, fmt.Errorf("marshal responses -> %w", err)
		}
		responses = b
	}

	row := dao.Registration{
		ID:            reg.ID,
		ParticipantID: reg.ParticipantID,
		EventID:       reg.EventID,
		Status:        string(reg.Status),
		TeamName:      reg.TeamName,
		Responses:     responses,
		Attended:      reg.Attended,
		AttendedAt:    reg.AttendedAt,
		AttendedBy:    reg.AttendedBy,
		Version:       reg.Version,
		CreatedAt:     reg.CreatedAt,
		UpdatedAt:     reg.UpdatedAt,
	}

	if m := reg.Merch; m != nil {
		row.IsMerch = true
		row.Merch = dao.MerchPurchase{
			ItemID:         m.ItemID,
			VariantID:      m.VariantID,
			ItemName:       m.ItemName,
			VariantLabel:   m.VariantLabel,
			Quantity:       m.Quantity,
			UnitPrice:      m.UnitPrice,
			TotalAmount:    m.TotalAmount,
			PaymentStatus:  string(m.PaymentStatus),
			Strategy:       string(m.Strategy),
			PaymentProofID: m.PaymentProofID,
			ReviewerID:     m.ReviewerID,
			ReviewedAt:     m.ReviewedAt,
			ReviewComment:  m.ReviewComment,
		}
	}

	return row, nil
}

func (r *RegistrationRepository) daoToDomain(row dao.Registration) (domain.Registration, error) {
	var responses domain.Responses
	if len(row.Responses) > 0 {
		if err := json.Unmarshal(row.Responses, &responses); err != nil {
			return domain.Registration{}, fmt.Errorf("unmarshal responses of registration %d -> %w", row.ID, err)
		}
	}

	reg := domain.Registration{
		ID:            row.ID,
		ParticipantID: row.ParticipantID,
		EventID:       row.EventID,
		Status:        domain.RegistrationStatus(row.Status),
		TeamName:      row.TeamName,
		Responses:     responses,
		Attended:      row.Attended,
		AttendedAt:    row.AttendedAt,
		AttendedBy:    row.AttendedBy,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	if row.IsMerch {
		m := row.Merch
		reg.Merch = &domain.MerchPurchase{
			ItemID:         m.ItemID,
			VariantID:      m.VariantID,
			ItemName:       m.ItemName,
			VariantLabel:   m.VariantLabel,
			Quantity:       m.Quantity,
			UnitPrice:      m.UnitPrice,
			TotalAmount:    m.TotalAmount,
			PaymentStatus:  domain.PaymentStatus(m.PaymentStatus),
			Strategy:       domain.ReservationStrategy(m.Strategy),
			PaymentProofID: m.PaymentProofID,
			ReviewerID:     m.ReviewerID,
			ReviewedAt:     m.ReviewedAt,
			ReviewComment:  m.ReviewComment,
		}
	}

	return reg, nil
}
