package models

import (
	"time"
)

const (
	SessionStatusActive  = "active"
	SessionStatusExpired = "expired"
)

// TableSession mengikat satu meja fisik ke browser pelanggan untuk waktu terbatas.
// ID juga dipakai sebagai nilai cookie table_session_id.
type TableSession struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TableID   uint      `gorm:"index;not null" json:"table_id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsActive: status active dan belum lewat expires_at.
func (s *TableSession) IsActive(now time.Time) bool {
	return s.Status == SessionStatusActive && s.ExpiresAt.After(now)
}
