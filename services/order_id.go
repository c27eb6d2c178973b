package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yeremiapane/qr-ordering/models"
	"gorm.io/gorm"
)

// OrderIDSource menghasilkan order id berikutnya di dalam transaksi ledger.
type OrderIDSource interface {
	Next(ctx context.Context, tx *gorm.DB) (string, error)
}

// OrderIDGenerator membuat id berformat OR-DDMMYY-NNNN, tanggal mengikuti zona waktu restoran.
type OrderIDGenerator struct {
	Location *time.Location
	Now      func() time.Time
}

func NewOrderIDGenerator(loc *time.Location) *OrderIDGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderIDGenerator{Location: loc, Now: time.Now}
}

// Prefix untuk hari ini, contoh "OR-150124-".
func (g *OrderIDGenerator) Prefix() string {
	return "OR-" + g.Now().In(g.Location).Format("020106") + "-"
}

func (g *OrderIDGenerator) Next(ctx context.Context, tx *gorm.DB) (string, error) {
	prefix := g.Prefix()

	// Urut panjang dulu supaya 10000 tetap di atas 9999.
	var latest []string
	err := tx.WithContext(ctx).Model(&models.Order{}).
		Where("order_id LIKE ?", prefix+"%").
		Order("LENGTH(order_id) DESC").
		Order("order_id DESC").
		Limit(1).
		Pluck("order_id", &latest).Error
	if err != nil {
		return "", fmt.Errorf("lookup latest order id: %w", err)
	}

	seq := 1
	if len(latest) > 0 {
		seq = nextSequence(latest[0], prefix)
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func nextSequence(latest, prefix string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}
