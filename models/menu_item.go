package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem dikelola di luar layanan ini, di sini hanya dibaca.
type MenuItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL      *string         `gorm:"column:image_url;type:varchar(255)" json:"image_url"`
	Category      string          `gorm:"type:varchar(100);index" json:"category"`
	IsAvailable   bool            `gorm:"not null;default:true" json:"is_available"`
	IsRecommended bool            `gorm:"not null;default:false" json:"is_recommended"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
