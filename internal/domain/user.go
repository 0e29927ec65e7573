package domain

import "time"

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "NON_IIIT"
)

type User struct {
	ID              uint            `json:"id"`
	Email           string          `json:"email"`
	Password        string          `json:"-"`
	Name            string          `json:"name"`
	Role            Role            `json:"role"`
	ParticipantType ParticipantType `json:"participant_type,omitempty"`
	Disabled        bool            `json:"disabled"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (u User) Identity() Identity {
	return Identity{
		UserID: u.ID,
		Role:   u.Role,
		IIIT:   u.Role == RoleParticipant && u.ParticipantType == ParticipantIIIT,
	}
}

// Identity is the authenticated caller as seen by the engine.
type Identity struct {
	UserID uint
	Role   Role
	IIIT   bool
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanManage reports whether the caller may run organizer operations on ev.
func (i Identity) CanManage(ev Event) bool {
	return i.IsAdmin() || i.Owns(ev)
}

// Owns reports whether the caller is the organizer of ev. Editing and
// lifecycle moves are reserved to the owner.
func (i Identity) Owns(ev Event) bool {
	return i.Role == RoleOrganizer && ev.OrganizerID == i.UserID
}
