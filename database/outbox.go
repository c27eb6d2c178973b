package database

import (
	"fmt"
	"time"

	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
	"gorm.io/gorm"
)

// PurgeProcessedChanges menghapus baris db_changes yang sudah diproses dan lebih tua dari before.
func PurgeProcessedChanges(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Where("processed = ? AND changed_at < ?", true, before).Delete(&models.DBChange{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge processed changes: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		utils.InfoLogger.Printf("Purged %d processed changes", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
