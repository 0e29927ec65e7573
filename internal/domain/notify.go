package domain

import "time"

type ConfirmationKind string

const (
	ConfirmRegistration  ConfirmationKind = "registration"
	ConfirmPurchase      ConfirmationKind = "purchase"
	ConfirmOrderApproved ConfirmationKind = "order_approved"
)

// Confirmation is the mail sent once a participant holds a ticket.
type Confirmation struct {
	Kind      ConfirmationKind `json:"kind"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	EventID   uint             `json:"event_id"`
	EventName string           `json:"event_name"`
	TicketID  string           `json:"ticket_id"`
}

// Announcement is broadcast when an event is published.
type Announcement struct {
	EventID     uint        `json:"event_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        EventType   `json:"type"`
	Eligibility Eligibility `json:"eligibility"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Tags        []string    `json:"tags"`
	OrganizerID uint        `json:"organizer_id"`
}

func (e Event) Announcement() Announcement {
	return Announcement{
		EventID:     e.ID,
		Name:        e.Name,
		Description: e.Description,
		Type:        e.Type,
		Eligibility: e.Eligibility,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Tags:        e.Tags,
		OrganizerID: e.OrganizerID,
	}
}
