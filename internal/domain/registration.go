package domain

import "time"

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
	RegistrationRejected   RegistrationStatus = "REJECTED"
	RegistrationCompleted  RegistrationStatus = "COMPLETED"
)

// ConfirmedStatuses are the statuses that occupy a seat.
var ConfirmedStatuses = []RegistrationStatus{RegistrationRegistered, RegistrationCompleted}

type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "PAYMENT_PENDING"
	PaymentPendingApproval PaymentStatus = "PENDING_APPROVAL"
	PaymentApproved        PaymentStatus = "APPROVED"
	PaymentRejected        PaymentStatus = "REJECTED"
)

type ReservationStrategy string

const (
	ReserveAtSubmit ReservationStrategy = "RESERVE_AT_SUBMIT"
	DeferToApproval ReservationStrategy = "DEFER_TO_APPROVAL"
)

type MerchPurchase struct {
	ItemID         uint                `json:"item_id"`
	VariantID      uint                `json:"variant_id"`
	ItemName       string              `json:"item_name"`
	VariantLabel   string              `json:"variant_label"`
	Quantity       int                 `json:"quantity"`
	UnitPrice      int64               `json:"unit_price"`
	TotalAmount    int64               `json:"total_amount"`
	PaymentStatus  PaymentStatus       `json:"payment_status"`
	Strategy       ReservationStrategy `json:"strategy"`
	PaymentProofID string              `json:"payment_proof_id,omitempty"`
	ReviewerID     *uint               `json:"reviewer_id,omitempty"`
	ReviewedAt     *time.Time          `json:"reviewed_at,omitempty"`
	ReviewComment  string              `json:"review_comment,omitempty"`
}

type Registration struct {
	ID            uint               `json:"id"`
	ParticipantID uint               `json:"participant_id"`
	EventID       uint               `json:"event_id"`
	Status        RegistrationStatus `json:"status"`
	TeamName      string             `json:"team_name,omitempty"`
	Responses     Responses          `json:"responses,omitempty"`
	Merch         *MerchPurchase     `json:"merch_purchase,omitempty"`
	Attended      bool               `json:"attended"`
	AttendedAt    *time.Time         `json:"attended_at,omitempty"`
	AttendedBy    *uint              `json:"attended_by,omitempty"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func (r Registration) IsConfirmed() bool {
	return r.Status == RegistrationRegistered || r.Status == RegistrationCompleted
}

// Admissible reports whether the registration holds a valid entry pass.
func (r Registration) Admissible() bool {
	if !r.IsConfirmed() {
		return false
	}

	return r.Merch == nil || r.Merch.PaymentStatus == PaymentApproved
}

// Clone deep-copies the fields that sagas snapshot before mutating.
func (r Registration) Clone() Registration {
	if r.Merch != nil {
		m := *r.Merch
		r.Merch = &m
	}

	return r
}

// NewMerchPurchase prices a purchase of qty units of v.
func NewMerchPurchase(item MerchItem, v MerchVariant, qty int, strategy ReservationStrategy) *MerchPurchase {
	status := PaymentPending
	if strategy == ReserveAtSubmit {
		status = PaymentApproved
	}

	return &MerchPurchase{
		ItemID:        item.ID,
		VariantID:     v.ID,
		ItemName:      item.Name,
		VariantLabel:  v.Label,
		Quantity:      qty,
		UnitPrice:     v.Price,
		TotalAmount:   v.Price * int64(qty),
		PaymentStatus: status,
		Strategy:      strategy,
	}
}

// CheckQuantity validates qty against the item limit and the variant's current stock.
func CheckQuantity(item MerchItem, v MerchVariant, qty int) error {
	if qty <= 0 {
		return Invalid("quantity", "must be a positive integer")
	}
	if qty > item.PurchaseLimit {
		return Invalid("quantity", "exceeds the purchase limit of %d", item.PurchaseLimit)
	}
	if qty > v.StockQty {
		return ErrInsufficientStock
	}

	return nil
}

type ReviewDecision string

const (
	ReviewApproved ReviewDecision = "APPROVED"
	ReviewRejected ReviewDecision = "REJECTED"
)
