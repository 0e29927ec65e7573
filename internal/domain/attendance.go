package domain

import "time"

type AuditAction string

const (
	AuditScanSuccess    AuditAction = "SCAN_SUCCESS"
	AuditScanDuplicate  AuditAction = "SCAN_DUPLICATE"
	AuditScanInvalid    AuditAction = "SCAN_INVALID"
	AuditManualOverride AuditAction = "MANUAL_OVERRIDE"
)

// AuditLog is an append-only attendance record.
type AuditLog struct {
	ID             uint           `json:"id"`
	EventID        uint           `json:"event_id"`
	RegistrationID *uint          `json:"registration_id,omitempty"`
	TicketID       string         `json:"ticket_id,omitempty"`
	ActorID        uint           `json:"actor_id"`
	Action         AuditAction    `json:"action"`
	Reason         string         `json:"reason"`
	Payload        map[string]any `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type AttendanceSummary struct {
	EventID  uint       `json:"event_id"`
	Total    int64      `json:"total"`
	Attended int64      `json:"attended"`
	Recent   []AuditLog `json:"recent"`
}

// AttendanceMark is the attendance portion of a registration.
type AttendanceMark struct {
	Attended   bool       `json:"attended"`
	AttendedAt *time.Time `json:"attended_at,omitempty"`
	AttendedBy *uint      `json:"attended_by,omitempty"`
}

func (r Registration) Mark() AttendanceMark {
	return AttendanceMark{Attended: r.Attended, AttendedAt: r.AttendedAt, AttendedBy: r.AttendedBy}
}
