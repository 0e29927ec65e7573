package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

const (
	defaultRecentAudit = 20
	maxRecentAudit     = 100
)

var ErrAlreadyAttended = domain.ErrAlreadyAttended

type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error)
	ListRecent(ctx context.Context, eventID uint, limit int) ([]domain.AuditLog, error)
}

// ScanInput is either the decoded QR fields or the raw QR payload.
type ScanInput struct {
	QRPayload      string
	TicketID       string
	RegistrationID uint
	ParticipantID  uint
	EventID        uint
}

type OverrideInput struct {
	RegistrationID uint
	Attended       bool
	Reason         string
}

type AttendanceService struct {
	events  EventRepository
	regs    RegistrationRepository
	tickets TicketRepository
	audit   AuditRepository
	now     func() time.Time
}

func NewAttendanceService(events EventRepository, regs RegistrationRepository, tickets TicketRepository, audit AuditRepository) *AttendanceService {
	return &AttendanceService{
		events:  events,
		regs:    regs,
		tickets: tickets,
		audit:   audit,
		now:     time.Now,
	}
}

// Scan admits the holder of a ticket once. Every outcome is written to the audit log.
func (s *AttendanceService) Scan(ctx context.Context, caller domain.Identity, eventID uint, in ScanInput) (domain.Registration, error) {
	ev, err := loadManaged(ctx, s.events, caller, eventID)
	if err != nil {
		return domain.Registration{}, err
	}

	payload := domain.TicketPayload{
		TicketID:       in.TicketID,
		RegistrationID: in.RegistrationID,
		ParticipantID:  in.ParticipantID,
		EventID:        in.EventID,
	}
	entry := domain.AuditLog{
		EventID:  ev.ID,
		ActorID:  caller.UserID,
		TicketID: in.TicketID,
		Payload:  map[string]any{"input": in},
	}

	if in.QRPayload != "" {
		payload, err = domain.ParseTicketPayload(in.QRPayload)
		if err != nil {
			return domain.Registration{}, s.rejectScan(ctx, entry, "unreadable QR payload", err)
		}
		entry.TicketID = payload.TicketID
	}
	entry.Payload = map[string]any{"ticket": payload}

	if !payload.Complete() {
		return domain.Registration{}, s.rejectScan(ctx, entry, "incomplete ticket",
			domain.Invalid("ticket", "ticket_id, registration_id and event_id are required"))
	}
	if payload.EventID != ev.ID {
		return domain.Registration{}, s.rejectScan(ctx, entry, "ticket is for another event",
			domain.Invalid("event_id", "ticket is for event %d", payload.EventID))
	}

	ticket, err := s.tickets.FindByTicketID(ctx, payload.TicketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return domain.Registration{}, s.rejectScan(ctx, entry, "unknown ticket", err)
		}
		return domain.Registration{}, fmt.Errorf("s.tickets.FindByTicketID -> %w", err)
	}
	if ticket.RegistrationID != payload.RegistrationID || ticket.EventID != ev.ID ||
		(payload.ParticipantID != 0 && ticket.ParticipantID != payload.ParticipantID) {
		return domain.Registration{}, s.rejectScan(ctx, entry, "ticket does not match its registration",
			domain.Invalid("ticket", "does not match the registration"))
	}

	regID := ticket.RegistrationID
	entry.RegistrationID = &regID

	reg, err := s.regs.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			return domain.Registration{}, s.rejectScan(ctx, entry, "registration no longer exists", err)
		}
		return domain.Registration{}, fmt.Errorf("s.regs.FindByID -> %w", err)
	}
	if !reg.Admissible() {
		return domain.Registration{}, s.rejectScan(ctx, entry, "registration is not admissible",
			domain.Invalid("registration", "is %s and cannot be admitted", reg.Status))
	}
	if reg.Attended {
		return domain.Registration{}, s.duplicateScan(ctx, entry, reg)
	}

	now := s.now().UTC()
	flipped, err := s.regs.MarkAttended(ctx, reg.ID, caller.UserID, now)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.regs.MarkAttended -> %w", err)
	}
	if !flipped {
		return domain.Registration{}, s.duplicateScan(ctx, entry, reg)
	}

	by := caller.UserID
	reg.Attended = true
	reg.AttendedAt = &now
	reg.AttendedBy = &by

	entry.Action = domain.AuditScanSuccess
	entry.Reason = "admitted"
	if _, err = s.audit.Append(ctx, entry); err != nil {
		return domain.Registration{}, fmt.Errorf("s.audit.Append -> %w", err)
	}

	return reg, nil
}

func (s *AttendanceService) rejectScan(ctx context.Context, entry domain.AuditLog, reason string, cause error) error {
	entry.Action = domain.AuditScanInvalid
	entry.Reason = reason
	s.record(ctx, entry)

	return cause
}

func (s *AttendanceService) duplicateScan(ctx context.Context, entry domain.AuditLog, reg domain.Registration) error {
	entry.Action = domain.AuditScanDuplicate
	entry.Reason = "already attended"
	entry.Payload["attendance"] = reg.Mark()
	s.record(ctx, entry)

	return ErrAlreadyAttended
}

// record appends entry and only logs failures; the scan outcome stands either way.
func (s *AttendanceService) record(ctx context.Context, entry domain.AuditLog) {
	if _, err := s.audit.Append(ctx, entry); err != nil {
		zap.L().Error("failed to write attendance audit",
			zap.Uint("event_id", entry.EventID),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}

// Override sets attendance by hand. The reason is mandatory.
func (s *AttendanceService) Override(ctx context.Context, caller domain.Identity, eventID uint, in OverrideInput) (domain.Registration, error) {
	ev, err := loadManaged(ctx, s.events, caller, eventID)
	if err != nil {
		return domain.Registration{}, err
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return domain.Registration{}, domain.Invalid("reason", "is required")
	}

	reg, err := s.regs.FindByID(ctx, in.RegistrationID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.regs.FindByID -> %w", err)
	}
	if reg.EventID != ev.ID {
		return domain.Registration{}, ErrRegistrationNotFound
	}

	before := reg.Mark()
	after := domain.AttendanceMark{Attended: in.Attended}
	if in.Attended {
		now := s.now().UTC()
		by := caller.UserID
		after.AttendedAt = &now
		after.AttendedBy = &by
	}

	if err = s.regs.SetAttendance(ctx, reg.ID, after); err != nil {
		return domain.Registration{}, fmt.Errorf("s.regs.SetAttendance -> %w", err)
	}

	regID := reg.ID
	_, err = s.audit.Append(ctx, domain.AuditLog{
		EventID:        ev.ID,
		RegistrationID: &regID,
		ActorID:        caller.UserID,
		Action:         domain.AuditManualOverride,
		Reason:         reason,
		Payload:        map[string]any{"before": before, "after": after},
	})
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.audit.Append -> %w", err)
	}

	reg.Attended = after.Attended
	reg.AttendedAt = after.AttendedAt
	reg.AttendedBy = after.AttendedBy
	reg.Version++

	return reg, nil
}

// Summary counts confirmed registrations and attendance and returns the latest audit entries.
func (s *AttendanceService) Summary(ctx context.Context, caller domain.Identity, eventID uint, limit int) (domain.AttendanceSummary, error) {
	ev, err := loadManaged(ctx, s.events, caller, eventID)
	if err != nil {
		return domain.AttendanceSummary{}, err
	}

	switch {
	case limit < 0:
		return domain.AttendanceSummary{}, domain.Invalid("limit", "must not be negative")
	case limit == 0:
		limit = defaultRecentAudit
	case limit > maxRecentAudit:
		limit = maxRecentAudit
	}

	total, err := s.regs.CountConfirmed(ctx, ev.ID)
	if err != nil {
		return domain.AttendanceSummary{}, fmt.Errorf("s.regs.CountConfirmed -> %w", err)
	}
	attended, err := s.regs.CountAttended(ctx, ev.ID)
	if err != nil {
		return domain.AttendanceSummary{}, fmt.Errorf("s.regs.CountAttended -> %w", err)
	}
	recent, err := s.audit.ListRecent(ctx, ev.ID, limit)
	if err != nil {
		return domain.AttendanceSummary{}, fmt.Errorf("s.audit.ListRecent -> %w", err)
	}

	return domain.AttendanceSummary{
		EventID:  ev.ID,
		Total:    total,
		Attended: attended,
		Recent:   recent,
	}, nil
}
