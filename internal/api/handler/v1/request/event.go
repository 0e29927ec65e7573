package request

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

type MerchVariantRequest struct {
	ID       uint   `json:"id,omitempty"`
	Label    string `json:"label"`
	StockQty int    `json:"stock_qty"`
	Price    int64  `json:"price"`
}

type MerchItemRequest struct {
	ID            uint                  `json:"id,omitempty"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	PurchaseLimit int                   `json:"purchase_limit"`
	Variants      []MerchVariantRequest `json:"variants"`
}

func (req *MerchItemRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 80)),
		validation.Field(&req.Description, validation.Length(0, 500)),
		validation.Field(&req.PurchaseLimit, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return err
	}

	for i := range req.Variants {
		v := &req.Variants[i]
		err = validation.ValidateStruct(
			v,
			validation.Field(&v.Label, validation.Required, validation.Length(1, 40)),
			validation.Field(&v.StockQty, validation.Min(0)),
			validation.Field(&v.Price, validation.Min(int64(0))),
		)
		if err != nil {
			return fmt.Errorf("variants[%d]: %w", i, err)
		}
	}

	return nil
}

func (req *MerchItemRequest) toDomain() domain.MerchItem {
	variants := make([]domain.MerchVariant, len(req.Variants))
	for i, v := range req.Variants {
		variants[i] = domain.MerchVariant{
			ID:       v.ID,
			ItemID:   req.ID,
			Label:    strings.TrimSpace(v.Label),
			StockQty: v.StockQty,
			Price:    v.Price,
		}
	}

	return domain.MerchItem{
		ID:            req.ID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PurchaseLimit: req.PurchaseLimit,
		Variants:      variants,
	}
}

type CreateEventRequest struct {
	Name                 string             `json:"name"`
	Description          string             `json:"description"`
	Type                 domain.EventType   `json:"type"`
	Eligibility          domain.Eligibility `json:"eligibility"`
	RegistrationDeadline *time.Time         `json:"registration_deadline"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`
	RegistrationLimit    int                `json:"registration_limit"`
	Tags                 []string           `json:"tags"`
	FormSchema           domain.FormSchema  `json:"custom_form_schema"`
	Items                []MerchItemRequest `json:"items"`
}

func (req *CreateEventRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.Type, validation.Required, validation.In(domain.EventNormal, domain.EventMerchandise)),
		validation.Field(&req.Eligibility, validation.Required,
			validation.In(domain.EligibilityAll, domain.EligibilityIIITOnly, domain.EligibilityNonIIITOnly)),
		validation.Field(&req.StartDate, validation.Required),
		validation.Field(&req.EndDate, validation.Required),
		validation.Field(&req.RegistrationLimit, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return err
	}

	if err = validateTags(req.Tags); err != nil {
		return err
	}

	return validateItems(req.Items)
}

func (req *CreateEventRequest) ToEvent() domain.Event {
	return domain.Event{
		Name:                 strings.TrimSpace(req.Name),
		Description:          req.Description,
		Type:                 req.Type,
		Eligibility:          req.Eligibility,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		Tags:                 normalizeTags(req.Tags),
		FormSchema:           req.FormSchema,
		Items:                itemsToDomain(req.Items),
	}
}

// UpdateEventRequest is a partial update; omitted fields are left untouched.
type UpdateEventRequest struct {
	Name                 *string             `json:"name"`
	Description          *string             `json:"description"`
	Type                 *domain.EventType   `json:"type"`
	Eligibility          *domain.Eligibility `json:"eligibility"`
	RegistrationDeadline *time.Time          `json:"registration_deadline"`
	StartDate            *time.Time          `json:"start_date"`
	EndDate              *time.Time          `json:"end_date"`
	RegistrationLimit    *int                `json:"registration_limit"`
	Tags                 *[]string           `json:"tags"`
	FormSchema           *domain.FormSchema  `json:"custom_form_schema"`
	Items                *[]MerchItemRequest `json:"items"`
}

func (req *UpdateEventRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 5000)),
		validation.Field(&req.RegistrationLimit, validation.Min(1)),
	)
	if err != nil {
		return err
	}

	if req.Tags != nil {
		if err = validateTags(*req.Tags); err != nil {
			return err
		}
	}
	if req.Items != nil {
		return validateItems(*req.Items)
	}

	return nil
}

func (req *UpdateEventRequest) ToPatch() domain.EventPatch {
	p := domain.EventPatch{
		Name:                 req.Name,
		Description:          req.Description,
		Type:                 req.Type,
		Eligibility:          req.Eligibility,
		RegistrationDeadline: req.RegistrationDeadline,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationLimit:    req.RegistrationLimit,
		FormSchema:           req.FormSchema,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		p.Name = &name
	}
	if req.Tags != nil {
		tags := normalizeTags(*req.Tags)
		p.Tags = &tags
	}
	if req.Items != nil {
		items := itemsToDomain(*req.Items)
		p.Items = &items
	}

	return p
}

type ListEventsQuery struct {
	Query  string             `form:"q"`
	Type   domain.EventType   `form:"type"`
	Status domain.EventStatus `form:"status"`
	Mine   bool               `form:"mine"`
}

func (q *ListEventsQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Query, validation.Length(0, 200)),
		validation.Field(&q.Type, validation.In(domain.EventNormal, domain.EventMerchandise)),
		validation.Field(&q.Status, validation.In(
			domain.EventDraft, domain.EventPublished, domain.EventOngoing, domain.EventClosed, domain.EventCompleted)),
	)
}

func validateTags(tags []string) error {
	if len(tags) > 20 {
		return fmt.Errorf("tags: at most 20 tags are allowed")
	}
	for i, tag := range tags {
		if err := validation.Validate(strings.TrimSpace(tag), validation.Required, validation.Length(1, 40)); err != nil {
			return fmt.Errorf("tags[%d]: %w", i, err)
		}
	}

	return nil
}

func validateItems(items []MerchItemRequest) error {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
	}

	return nil
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}

	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, strings.ToLower(strings.TrimSpace(tag)))
	}

	return out
}

func itemsToDomain(items []MerchItemRequest) []domain.MerchItem {
	if items == nil {
		return nil
	}

	out := make([]domain.MerchItem, len(items))
	for i := range items {
		out[i] = items[i].toDomain()
	}

	return out
}
