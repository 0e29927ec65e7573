package domain

import (
	"time"
)

type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventOngoing   EventStatus = "ONGOING"
	EventClosed    EventStatus = "CLOSED"
	EventCompleted EventStatus = "COMPLETED"
)

type EventType string

const (
	EventNormal      EventType = "NORMAL"
	EventMerchandise EventType = "MERCHANDISE"
)

type Eligibility string

const (
	EligibilityAll         Eligibility = "ALL"
	EligibilityIIITOnly    Eligibility = "IIIT_ONLY"
	EligibilityNonIIITOnly Eligibility = "NON_IIIT_ONLY"
)

type Event struct {
	ID                   uint        `json:"id"`
	OrganizerID          uint        `json:"organizer_id"`
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Type                 EventType   `json:"type"`
	Status               EventStatus `json:"status"`
	Eligibility          Eligibility `json:"eligibility"`
	RegistrationDeadline *time.Time  `json:"registration_deadline,omitempty"`
	StartDate            time.Time   `json:"start_date"`
	EndDate              time.Time   `json:"end_date"`
	RegistrationLimit    int         `json:"registration_limit"`
	Tags                 []string    `json:"tags,omitempty"`
	FormSchema           FormSchema  `json:"custom_form_schema,omitempty"`
	Items                []MerchItem `json:"items,omitempty"`
	Version              int         `json:"version"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

type MerchItem struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	PurchaseLimit int            `json:"purchase_limit"`
	Variants      []MerchVariant `json:"variants"`
}

// MerchVariant prices are in minor currency units.
type MerchVariant struct {
	ID       uint   `json:"id"`
	ItemID   uint   `json:"item_id"`
	Label    string `json:"label"`
	StockQty int    `json:"stock_qty"`
	Price    int64  `json:"price"`
}

// Validate checks the invariants every stored event must satisfy.
func (e Event) Validate() error {
	if e.Name == "" {
		return Invalid("name", "is required")
	}

	switch e.Type {
	case EventNormal, EventMerchandise:
	default:
		return Invalid("type", "must be NORMAL or MERCHANDISE")
	}

	switch e.Eligibility {
	case EligibilityAll, EligibilityIIITOnly, EligibilityNonIIITOnly:
	default:
		return Invalid("eligibility", "must be ALL, IIIT_ONLY or NON_IIIT_ONLY")
	}

	if e.RegistrationLimit <= 0 {
		return Invalid("registration_limit", "must be a positive integer")
	}

	if err := e.validateDates(); err != nil {
		return err
	}

	if e.Type == EventNormal {
		if len(e.Items) > 0 {
			return Invalid("items", "only merchandise events carry items")
		}

		return e.FormSchema.Validate()
	}

	if len(e.FormSchema) > 0 {
		return Invalid("custom_form_schema", "merchandise events do not carry a form")
	}

	return validateItems(e.Items)
}

// ValidateForPublish adds the checks that only apply once the event goes live.
func (e Event) ValidateForPublish() error {
	if err := e.Validate(); err != nil {
		return err
	}

	if e.Type != EventMerchandise {
		return nil
	}

	for _, item := range e.Items {
		if len(item.Variants) > 0 {
			return nil
		}
	}

	return Invalid("items", "a merchandise event needs at least one item with a variant")
}

func (e Event) validateDates() error {
	if e.StartDate.IsZero() {
		return Invalid("start_date", "is required")
	}
	if e.EndDate.IsZero() {
		return Invalid("end_date", "is required")
	}
	if e.EndDate.Before(e.StartDate) {
		return Invalid("end_date", "must not be before start_date")
	}
	if e.RegistrationDeadline != nil && e.RegistrationDeadline.After(e.StartDate) {
		return Invalid("registration_deadline", "must not be after start_date")
	}

	return nil
}

func validateItems(items []MerchItem) error {
	for i, item := range items {
		if item.Name == "" {
			return Invalid(fieldPath("items", i, "name"), "is required")
		}
		if item.PurchaseLimit <= 0 {
			return Invalid(fieldPath("items", i, "purchase_limit"), "must be a positive integer")
		}
		for j, v := range item.Variants {
			if v.Label == "" {
				return Invalid(fieldPath("items", i, fieldPath("variants", j, "label")), "is required")
			}
			if v.StockQty < 0 {
				return Invalid(fieldPath("items", i, fieldPath("variants", j, "stock_qty")), "must not be negative")
			}
			if v.Price < 0 {
				return Invalid(fieldPath("items", i, fieldPath("variants", j, "price")), "must not be negative")
			}
		}
	}

	return nil
}

// HasStock reports whether any variant can still be sold.
func (e Event) HasStock() bool {
	for _, item := range e.Items {
		for _, v := range item.Variants {
			if v.StockQty > 0 {
				return true
			}
		}
	}

	return false
}

func (e Event) FindVariant(itemID, variantID uint) (MerchItem, MerchVariant, error) {
	for _, item := range e.Items {
		if item.ID != itemID {
			continue
		}
		for _, v := range item.Variants {
			if v.ID == variantID {
				return item, v, nil
			}
		}

		return MerchItem{}, MerchVariant{}, ErrVariantNotFound
	}

	return MerchItem{}, MerchVariant{}, ErrItemNotFound
}

// IsOpen reports whether the lifecycle currently admits participants.
func (e Event) IsOpen() bool {
	return e.Status == EventPublished || e.Status == EventOngoing
}
