package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/repository/dao"
)

var (
	ErrEventNotFound     = dao.ErrEventNotFound
	ErrStaleVersion      = dao.ErrStaleVersion
	ErrInsufficientStock = dao.ErrInsufficientStock
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	List(ctx context.Context, filter dao.EventFilter) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event, replaceItems bool) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
	Reserve(ctx context.Context, key string, variantID uint, qty int) error
	Release(ctx context.Context, key string) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

type EventFilter struct {
	Statuses    []domain.EventStatus
	Type        domain.EventType
	OrganizerID uint
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	row, err := r.domainToDAO(event)
	if err != nil {
		return domain.Event{}, err
	}

	created, err := r.dao.Insert(ctx, row)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created)
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found)
}

func (r *EventRepository) List(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	found, err := r.dao.List(ctx, dao.EventFilter{
		Statuses:    statuses,
		Type:        string(filter.Type),
		OrganizerID: filter.OrganizerID,
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.Event, 0, len(found))
	for _, e := range found {
		ev, err := r.daoToDomain(e)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event, replaceItems bool) (domain.Event, error) {
	row, err := r.domainToDAO(event)
	if err != nil {
		return domain.Event{}, err
	}

	updated, err := r.dao.Update(ctx, row, replaceItems)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated)
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *EventRepository) ReserveStock(ctx context.Context, key string, variantID uint, qty int) error {
	if err := r.dao.Reserve(ctx, key, variantID, qty); err != nil {
		return fmt.Errorf("r.dao.Reserve -> %w", err)
	}

	return nil
}

func (r *EventRepository) ReleaseStock(ctx context.Context, key string) error {
	if err := r.dao.Release(ctx, key); err != nil {
		return fmt.Errorf("r.dao.Release -> %w", err)
	}

	return nil
}

func (r *EventRepository) domainToDAO(e domain.Event) (dao.Event, error) {
	tags, err := marshalJSON(e.Tags)
	if err != nil {
		return dao.Event{}, fmt.Errorf("marshal tags -> %w", err)
	}
	schema, err := marshalJSON(e.FormSchema)
	if err != nil {
		return dao.Event{}, fmt.Errorf("marshal form schema -> %w", err)
	}

	items := make([]dao.MerchItem, len(e.Items))
	for i, item := range e.Items {
		variants := make([]dao.MerchVariant, len(item.Variants))
		for j, v := range item.Variants {
			variants[j] = dao.MerchVariant{
				ID:       v.ID,
				ItemID:   item.ID,
				Label:    v.Label,
				StockQty: v.StockQty,
				Price:    v.Price,
			}
		}
		items[i] = dao.MerchItem{
			ID:            item.ID,
			EventID:       e.ID,
			Name:          item.Name,
			Description:   item.Description,
			PurchaseLimit: item.PurchaseLimit,
			Variants:      variants,
		}
	}

	return dao.Event{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 string(e.Type),
		Status:               string(e.Status),
		Eligibility:          string(e.Eligibility),
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		Tags:                 tags,
		FormSchema:           schema,
		Items:                items,
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}, nil
}

func (r *EventRepository) daoToDomain(e dao.Event) (domain.Event, error) {
	var tags []string
	if len(e.Tags) > 0 {
		if err := json.Unmarshal(e.Tags, &tags); err != nil {
			return domain.Event{}, fmt.Errorf("unmarshal tags of event %d -> %w", e.ID, err)
		}
	}

	var schema domain.FormSchema
	if len(e.FormSchema) > 0 {
		if err := json.Unmarshal(e.FormSchema, &schema); err != nil {
			return domain.Event{}, fmt.Errorf("unmarshal form schema of event %d -> %w", e.ID, err)
		}
	}

	var items []domain.MerchItem
	for _, item := range e.Items {
		variants := make([]domain.MerchVariant, len(item.Variants))
		for j, v := range item.Variants {
			variants[j] = domain.MerchVariant{
				ID:       v.ID,
				ItemID:   v.ItemID,
				Label:    v.Label,
				StockQty: v.StockQty,
				Price:    v.Price,
			}
		}
		items = append(items, domain.MerchItem{
			ID:            item.ID,
			Name:          item.Name,
			Description:   item.Description,
			PurchaseLimit: item.PurchaseLimit,
			Variants:      variants,
		})
	}

	return domain.Event{
		ID:                   e.ID,
		OrganizerID:          e.OrganizerID,
		Name:                 e.Name,
		Description:          e.Description,
		Type:                 domain.EventType(e.Type),
		Status:               domain.EventStatus(e.Status),
		Eligibility:          domain.Eligibility(e.Eligibility),
		RegistrationDeadline: e.RegistrationDeadline,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationLimit:    e.RegistrationLimit,
		Tags:                 tags,
		FormSchema:           schema,
		Items:                items,
		Version:              e.Version,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(b), nil
}
