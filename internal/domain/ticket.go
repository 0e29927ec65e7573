package domain

import (
	"encoding/json"
	"time"
)

type Ticket struct {
	TicketID       string    `json:"ticket_id"`
	RegistrationID uint      `json:"registration_id"`
	ParticipantID  uint      `json:"participant_id"`
	EventID        uint      `json:"event_id"`
	QRPayload      string    `json:"qr_payload"`
	QRImage        string    `json:"qr_image"`
	CreatedAt      time.Time `json:"created_at"`
}

// TicketPayload is what the QR code encodes.
type TicketPayload struct {
	TicketID       string `json:"ticket_id"`
	RegistrationID uint   `json:"registration_id"`
	ParticipantID  uint   `json:"participant_id"`
	EventID        uint   `json:"event_id"`
}

func (p TicketPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func ParseTicketPayload(s string) (TicketPayload, error) {
	var p TicketPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return TicketPayload{}, Invalid("qr_payload", "is not a ticket payload")
	}

	return p, nil
}

func (p TicketPayload) Complete() bool {
	return p.TicketID != "" && p.RegistrationID != 0 && p.EventID != 0
}
