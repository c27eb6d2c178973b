package services

import (
	"context"
	"fmt"

	"github.com/yeremiapane/qr-ordering/models"
	"gorm.io/gorm"
)

// MenuService hanya membaca menu_items; pengelolaan menu ada di luar layanan ini.
type MenuService struct {
	DB *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{DB: db}
}

// ListMenu item yang tersedia, opsional per kategori.
func (m *MenuService) ListMenu(ctx context.Context, category string) ([]models.MenuItem, error) {
	query := m.DB.WithContext(ctx).Where("is_available = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var items []models.MenuItem
	if err := query.Order("category ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// Recommended menu untuk halaman main.
func (m *MenuService) Recommended(ctx context.Context, limit int) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := m.DB.WithContext(ctx).
		Where("is_available = ? AND is_recommended = ?", true, true).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list recommended menu: %w", err)
	}
	return items, nil
}
