package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository/dao"
)

type AuditDAO interface {
	Insert(ctx context.Context, entry dao.AttendanceAuditLog) (dao.AttendanceAuditLog, error)
	ListRecent(ctx context.Context, eventID uint, limit int) ([]dao.AttendanceAuditLog, error)
}

type AuditRepository struct {
	dao AuditDAO
}

func NewAuditRepository(dao AuditDAO) *AuditRepository {
	return &AuditRepository{
		dao: dao,
	}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error) {
	var payload []byte
	if len(entry.Payload) > 0 {
		b, err := json.Marshal(entry.Payload)
		if err != nil {
			return domain.AuditLog{}, fmt.Errorf("marshal audit payload -> %w", err)
		}
		payload = b
	}

	created, err := r.dao.Insert(ctx, dao.AttendanceAuditLog{
		EventID:        entry.EventID,
		RegistrationID: entry.RegistrationID,
		TicketID:       entry.TicketID,
		ActorID:        entry.ActorID,
		Action:         string(entry.Action),
		Reason:         entry.Reason,
		Payload:        payload,
		CreatedAt:      entry.CreatedAt,
	})
	if err != nil {
		return domain.AuditLog{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, eventID uint, limit int) ([]domain.AuditLog, error) {
	found, err := r.dao.ListRecent(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListRecent -> %w", err)
	}

	entries := make([]domain.AuditLog, len(found))
	for i, f := range found {
		entries[i] = r.daoToDomain(f)
	}

	return entries, nil
}

func (r *AuditRepository) daoToDomain(e dao.AttendanceAuditLog) domain.AuditLog {
	var payload map[string]any
	if len(e.Payload) > 0 {
		// A corrupt payload should not hide the rest of the entry.
		_ = json.Unmarshal(e.Payload, &payload)
	}

	return domain.AuditLog{
		ID:             e.ID,
		EventID:        e.EventID,
		RegistrationID: e.RegistrationID,
		TicketID:       e.TicketID,
		ActorID:        e.ActorID,
		Action:         domain.AuditAction(e.Action),
		Reason:         e.Reason,
		Payload:        payload,
		CreatedAt:      e.CreatedAt,
	}
}
