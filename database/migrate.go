package database

import (
	"fmt"
	"strconv"

	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
	"gorm.io/gorm"
)

// Migrate menjalankan AutoMigrate untuk semua tabel layanan.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Table{},
		&models.TableSession{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.DBChange{},
	)
	if err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedTables memastikan meja 1..count ada. Meja fisik bersifat tetap,
// jadi baris yang sudah ada tidak diubah.
func SeedTables(db *gorm.DB, count int) error {
	for id := 1; id <= count; id++ {
		table := models.Table{ID: uint(id), TableNumber: strconv.Itoa(id)}
		if err := db.Where(models.Table{ID: uint(id)}).FirstOrCreate(&table).Error; err != nil {
			return fmt.Errorf("seed table %d: %w", id, err)
		}
	}
	utils.InfoLogger.Printf("Seeded %d tables", count)
	return nil
}
