package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

var ErrBlobNotFound = domain.ErrBlobNotFound

type Blob struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	MimeType  string `gorm:"not null"`
	Size      int64  `gorm:"not null"`
	Digest    string `gorm:"not null;index"`
	OwnerID   uint   `gorm:"not null;index"`
	EventID   uint   `gorm:"index"`
	Data      []byte `gorm:"type:bytea;not null"`
	CreatedAt time.Time
}

type BlobDAO struct {
	db *gorm.DB
}

func NewBlobDAO(db *gorm.DB) *BlobDAO {
	return &BlobDAO{
		db: db,
	}
}

func (d *BlobDAO) Insert(ctx context.Context, blob Blob) (Blob, error) {
	if err := d.db.WithContext(ctx).Create(&blob).Error; err != nil {
		return Blob{}, err
	}

	return blob, nil
}

// FindByID loads metadata only; use FindWithData for the bytes.
func (d *BlobDAO) FindByID(ctx context.Context, id string) (Blob, error) {
	var blob Blob

	result := d.db.WithContext(ctx).Omit("data").First(&blob, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Blob{}, ErrBlobNotFound
		}

		return Blob{}, result.Error
	}

	return blob, nil
}

func (d *BlobDAO) FindWithData(ctx context.Context, id string) (Blob, error) {
	var blob Blob

	result := d.db.WithContext(ctx).First(&blob, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Blob{}, ErrBlobNotFound
		}

		return Blob{}, result.Error
	}

	return blob, nil
}

// Delete is idempotent: deleting a missing blob succeeds.
func (d *BlobDAO) Delete(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Delete(&Blob{}, "id = ?", id).Error
}
