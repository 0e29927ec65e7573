package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

var (
	ErrRegistrationNotFound = domain.ErrRegistrationNotFound
	ErrRegistrationFull     = &domain.AdmissionError{Reason: domain.BlockRegistrationFull}
	ErrAlreadyRegistered    = &domain.AdmissionError{Reason: domain.BlockAlreadyRegistered}
)

const participantEventIndex = "idx_registrations_participant_event"

var confirmedStatuses = []string{
	string(domain.RegistrationRegistered),
	string(domain.RegistrationCompleted),
}

type Registration struct {
	ID            uint   `gorm:"primaryKey"`
	ParticipantID uint   `gorm:"not null;uniqueIndex:idx_registrations_participant_event"`
	EventID       uint   `gorm:"not null;index;uniqueIndex:idx_registrations_participant_event"`
	Status        string `gorm:"not null;index"`
	TeamName      string
	Responses     datatypes.JSON
	IsMerch       bool          `gorm:"not null;default:false"`
	Merch         MerchPurchase `gorm:"embedded;embeddedPrefix:merch_"`
	Attended      bool          `gorm:"not null;default:false"`
	AttendedAt    *time.Time
	AttendedBy    *uint
	Version       int `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MerchPurchase struct {
	ItemID         uint
	VariantID      uint
	ItemName       string
	VariantLabel   string
	Quantity       int
	UnitPrice      int64
	TotalAmount    int64
	PaymentStatus  string `gorm:"index"`
	Strategy       string
	PaymentProofID string
	ReviewerID     *uint
	ReviewedAt     *time.Time
	ReviewComment  string
}

type RegistrationFilter struct {
	EventID       uint
	ParticipantID uint
	PaymentStatus string
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// InsertWithCapacity locks the event row and re-checks capacity and
// duplicates before inserting, so concurrent admissions are serialized.
func (d *RegistrationDAO) InsertWithCapacity(ctx context.Context, reg Registration) (Registration, error) {
	reg.Version = 1

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "registration_limit").
			First(&event, reg.EventID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var confirmed int64
		if err = tx.Model(&Registration{}).
			Where("event_id = ? AND status IN ?", reg.EventID, confirmedStatuses).
			Count(&confirmed).Error; err != nil {
			return err
		}
		if confirmed >= int64(event.RegistrationLimit) {
			return ErrRegistrationFull
		}

		var existing int64
		if err = tx.Model(&Registration{}).
			Where("event_id = ? AND participant_id = ?", reg.EventID, reg.ParticipantID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		if err = tx.Create(&reg).Error; err != nil {
			if isUniqueViolation(err, participantEventIndex) {
				return ErrAlreadyRegistered
			}
			return err
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByParticipant(ctx context.Context, eventID, participantID uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND participant_id = ?", eventID, participantID).
		First(&reg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) List(ctx context.Context, filter RegistrationFilter) ([]Registration, error) {
	var regs []Registration

	query := d.db.WithContext(ctx)
	if filter.EventID != 0 {
		query = query.Where("event_id = ?", filter.EventID)
	}
	if filter.ParticipantID != 0 {
		query = query.Where("participant_id = ?", filter.ParticipantID)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("is_merch = ? AND merch_payment_status = ?", true, filter.PaymentStatus)
	}

	if err := query.Order("id").Find(&regs).Error; err != nil {
		return nil, err
	}

	return regs, nil
}

func (d *RegistrationDAO) CountConfirmed(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND status IN ?", eventID, confirmedStatuses).
		Count(&count).Error

	return count, err
}

func (d *RegistrationDAO) CountAll(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ?", eventID).
		Count(&count).Error

	return count, err
}

func (d *RegistrationDAO) CountAttended(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND status IN ? AND attended = ?", eventID, confirmedStatuses, true).
		Count(&count).Error

	return count, err
}

// Update writes reg if its version still matches and bumps the version.
func (d *RegistrationDAO) Update(ctx context.Context, reg Registration) (Registration, error) {
	expected := reg.Version
	reg.Version = expected + 1
	reg.UpdatedAt = time.Now().UTC()

	result := d.db.WithContext(ctx).Model(&reg).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "participant_id", "event_id", "created_at").
		Updates(reg)
	if result.Error != nil {
		return Registration{}, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := d.FindByID(ctx, reg.ID); err != nil {
			return Registration{}, err
		}
		return Registration{}, ErrStaleVersion
	}

	return reg, nil
}

// Delete is idempotent: deleting a missing registration succeeds.
func (d *RegistrationDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Delete(&Registration{}, id).Error
}

// MarkAttended flips attended only if it is still false and reports whether it did.
func (d *RegistrationDAO) MarkAttended(ctx context.Context, id, by uint, at time.Time) (bool, error) {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ? AND attended = ?", id, false).
		Updates(map[string]any{
			"attended":    true,
			"attended_at": at,
			"attended_by": by,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (d *RegistrationDAO) SetAttendance(ctx context.Context, id uint, attended bool, at *time.Time, by *uint) error {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attended":    attended,
			"attended_at": at,
			"attended_by": by,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}

	return nil
}

// CompleteEvent moves every REGISTERED registration of the event to COMPLETED.
func (d *RegistrationDAO) CompleteEvent(ctx context.Context, eventID uint) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND status = ?", eventID, string(domain.RegistrationRegistered)).
		Updates(map[string]any{
			"status":  string(domain.RegistrationCompleted),
			"version": gorm.Expr("version + 1"),
		})

	return result.RowsAffected, result.Error
}
