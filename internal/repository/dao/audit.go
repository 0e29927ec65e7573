package dao

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttendanceAuditLog rows are only ever inserted.
type AttendanceAuditLog struct {
	ID             uint   `gorm:"primaryKey"`
	EventID        uint   `gorm:"not null;index"`
	RegistrationID *uint  `gorm:"index"`
	TicketID       string `gorm:"index"`
	ActorID        uint   `gorm:"not null"`
	Action         string `gorm:"not null;index"`
	Reason         string `gorm:"type:text"`
	Payload        datatypes.JSON
	CreatedAt      time.Time `gorm:"not null;index"`
}

type AuditDAO struct {
	db *gorm.DB
}

func NewAuditDAO(db *gorm.DB) *AuditDAO {
	return &AuditDAO{
		db: db,
	}
}

func (d *AuditDAO) Insert(ctx context.Context, entry AttendanceAuditLog) (AttendanceAuditLog, error) {
	if err := d.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return AttendanceAuditLog{}, err
	}

	return entry, nil
}

func (d *AuditDAO) ListRecent(ctx context.Context, eventID uint, limit int) ([]AttendanceAuditLog, error) {
	var entries []AttendanceAuditLog

	err := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
