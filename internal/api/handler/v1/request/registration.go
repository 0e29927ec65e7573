package request

import (
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

type RegisterRequest struct {
	TeamName  string                     `json:"team_name"`
	Responses map[string]json.RawMessage `json:"responses"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TeamName, validation.Length(0, 80)),
	)
}

type OrderRequest struct {
	ItemID    uint `json:"item_id" form:"item_id"`
	VariantID uint `json:"variant_id" form:"variant_id"`
	Quantity  int  `json:"quantity" form:"quantity"`
}

func (req *OrderRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ItemID, validation.Required),
		validation.Field(&req.VariantID, validation.Required),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

type ReviewRequest struct {
	Decision domain.ReviewDecision `json:"decision"`
	Comment  string                `json:"comment"`
}

func (req *ReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Decision, validation.Required, validation.In(domain.ReviewApproved, domain.ReviewRejected)),
		validation.Field(&req.Comment, validation.Length(0, 500)),
	)
}

// ScanRequest carries either the raw QR payload or the decoded ticket fields.
type ScanRequest struct {
	QRPayload      string `json:"qr_payload"`
	TicketID       string `json:"ticket_id"`
	RegistrationID uint   `json:"registration_id"`
	ParticipantID  uint   `json:"participant_id"`
	EventID        uint   `json:"event_id"`
}

var errMissingCredential = errors.New("qr_payload or ticket_id is required")

func (req *ScanRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.QRPayload, validation.By(req.requireCredential), validation.Length(0, 4096)),
		validation.Field(&req.TicketID, validation.Length(0, 64)),
	)
}

func (req *ScanRequest) requireCredential(interface{}) error {
	if strings.TrimSpace(req.QRPayload) == "" && strings.TrimSpace(req.TicketID) == "" {
		return errMissingCredential
	}

	return nil
}

type OverrideRequest struct {
	RegistrationID uint   `json:"registration_id"`
	Attended       *bool  `json:"attended"`
	Reason         string `json:"reason"`
}

func (req *OverrideRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RegistrationID, validation.Required),
		validation.Field(&req.Attended, validation.NotNil),
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 500)),
	)
}

type OrdersQuery struct {
	PaymentStatus domain.PaymentStatus `form:"paymentStatus"`
}

func (q *OrdersQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.PaymentStatus, validation.In(
			domain.PaymentPending, domain.PaymentPendingApproval, domain.PaymentApproved, domain.PaymentRejected)),
	)
}

type SummaryQuery struct {
	Limit int `form:"limit"`
}

func (q *SummaryQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Limit, validation.Min(0)),
	)
}
