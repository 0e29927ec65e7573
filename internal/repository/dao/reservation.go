package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockReservation records one conditional stock decrement. Restoring stock
// consumes the row, so a restore runs at most once per reservation.
type StockReservation struct {
	Key       string `gorm:"primaryKey;column:reservation_key"`
	VariantID uint   `gorm:"not null;index"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
}

// Reserve takes qty units of the variant if that many are left.
func (d *EventDAO) Reserve(ctx context.Context, key string, variantID uint, qty int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&MerchVariant{}).
			Where("id = ? AND stock_qty >= ?", variantID, qty).
			Update("stock_qty", gorm.Expr("stock_qty - ?", qty))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		return tx.Create(&StockReservation{Key: key, VariantID: variantID, Quantity: qty}).Error
	})
}

// Release gives back the units held by the reservation. Unknown keys are a no-op.
func (d *EventDAO) Release(ctx context.Context, key string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r StockReservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, "reservation_key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err = tx.Model(&MerchVariant{}).
			Where("id = ?", r.VariantID).
			Update("stock_qty", gorm.Expr("stock_qty + ?", r.Quantity)).Error; err != nil {
			return err
		}

		return tx.Delete(&StockReservation{}, "reservation_key = ?", key).Error
	})
}
