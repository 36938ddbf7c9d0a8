package services

import (
	"fmt"

	"grocery-marketplace-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderCounter = "order"

// NextSequence atomically increments the named counter and returns the new
// value. A counter that does not exist yet starts at 1001. Pass the
// transaction the value is consumed in.
func NextSequence(tx *gorm.DB, name string) (int64, error) {
	seed := models.Counter{Name: name, Seq: 1001}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{"seq": gorm.Expr("counters.seq + 1")}),
	}).Create(&seed).Error
	if err != nil {
		return 0, fmt.Errorf("increment counter %q: %w", name, err)
	}

	var c models.Counter
	if err := tx.Where("name = ?", name).First(&c).Error; err != nil {
		return 0, fmt.Errorf("read counter %q: %w", name, err)
	}
	return c.Seq, nil
}

func orderNumber(seq int64) string {
	return fmt.Sprintf("ORD-%d", seq)
}
