package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

var (
	ErrEventNotFound     = domain.ErrEventNotFound
	ErrStaleVersion      = domain.ErrStaleVersion
	ErrInsufficientStock = domain.ErrInsufficientStock
)

type Event struct {
	ID                   uint   `gorm:"primaryKey"`
	OrganizerID          uint   `gorm:"not null;index"`
	Name                 string `gorm:"not null"`
	Description          string
	Type                 string `gorm:"not null"`
	Status               string `gorm:"not null;index"`
	Eligibility          string `gorm:"not null"`
	RegistrationDeadline *time.Time
	StartDate            time.Time `gorm:"not null"`
	EndDate              time.Time `gorm:"not null"`
	RegistrationLimit    int       `gorm:"not null"`
	Tags                 datatypes.JSON
	FormSchema           datatypes.JSON
	Items                []MerchItem `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Version              int         `gorm:"not null;default:1"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type MerchItem struct {
	ID            uint   `gorm:"primaryKey"`
	EventID       uint   `gorm:"not null;index"`
	Name          string `gorm:"not null"`
	Description   string
	PurchaseLimit int            `gorm:"not null"`
	Variants      []MerchVariant `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

type MerchVariant struct {
	ID       uint   `gorm:"primaryKey"`
	ItemID   uint   `gorm:"not null;index"`
	Label    string `gorm:"not null"`
	StockQty int    `gorm:"not null;check:stock_qty >= 0"`
	Price    int64  `gorm:"not null"`
}

type EventFilter struct {
	Statuses    []string
	Type        string
	OrganizerID uint
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	event.Version = 1
	if err := d.db.WithContext(ctx).Create(&event).Error; err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.withItems(d.db.WithContext(ctx)).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	var events []Event

	query := d.withItems(d.db.WithContext(ctx))
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.OrganizerID != 0 {
		query = query.Where("organizer_id = ?", filter.OrganizerID)
	}

	if err := query.Order("start_date, id").Find(&events).Error; err != nil {
		return nil, err
	}

	return events, nil
}

// Update writes event if its version still matches. Items are rewritten only
// when replaceItems is set, which drops every existing item and variant.
func (d *EventDAO) Update(ctx context.Context, event Event, replaceItems bool) (Event, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Event{}).
			Where("id = ? AND version = ?", event.ID, event.Version).
			Updates(map[string]any{
				"name":                  event.Name,
				"description":           event.Description,
				"status":                event.Status,
				"eligibility":           event.Eligibility,
				"registration_deadline": event.RegistrationDeadline,
				"start_date":            event.StartDate,
				"end_date":              event.EndDate,
				"registration_limit":    event.RegistrationLimit,
				"tags":                  event.Tags,
				"form_schema":           event.FormSchema,
				"version":               gorm.Expr("version + 1"),
				"updated_at":            time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return d.missingOrStale(tx, event.ID)
		}

		if !replaceItems {
			return nil
		}

		if err := tx.Where("item_id IN (?)", tx.Model(&MerchItem{}).Select("id").Where("event_id = ?", event.ID)).
			Delete(&MerchVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&MerchItem{}).Error; err != nil {
			return err
		}

		for i := range event.Items {
			event.Items[i].ID = 0
			event.Items[i].EventID = event.ID
			for j := range event.Items[i].Variants {
				event.Items[i].Variants[j].ID = 0
				event.Items[i].Variants[j].ItemID = 0
			}
		}
		if len(event.Items) > 0 {
			return tx.Create(&event.Items).Error
		}

		return nil
	})
	if err != nil {
		return Event{}, err
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id IN (?)", tx.Model(&MerchItem{}).Select("id").Where("event_id = ?", id)).
			Delete(&MerchVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&MerchItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Event{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEventNotFound
		}

		return nil
	})
}

func (d *EventDAO) FindVariant(ctx context.Context, variantID uint) (MerchVariant, error) {
	var v MerchVariant

	result := d.db.WithContext(ctx).First(&v, variantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return MerchVariant{}, domain.ErrVariantNotFound
		}

		return MerchVariant{}, result.Error
	}

	return v, nil
}

func (d *EventDAO) withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("merch_items.id") }).
		Preload("Items.Variants", func(db *gorm.DB) *gorm.DB { return db.Order("merch_variants.id") })
}

func (d *EventDAO) missingOrStale(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&Event{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrEventNotFound
	}

	return ErrStaleVersion
}
