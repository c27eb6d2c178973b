package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
	"gorm.io/gorm"
)

// TrackedOrder adalah read model halaman orders_tracking.
type TrackedOrder struct {
	Order        *models.Order   `json:"order"`
	Step         int             `json:"step"`
	Cancelled    bool            `json:"cancelled"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"total_display"`
}

func NewTrackedOrder(order *models.Order) *TrackedOrder {
	total := order.TotalAmount
	if total.IsZero() {
		total = order.ItemsTotal()
	}
	return &TrackedOrder{
		Order:        order,
		Step:         models.StepIndex(order.Status),
		Cancelled:    order.Status == models.OrderStatusCancelled,
		Total:        total,
		TotalDisplay: utils.FormatBaht(total),
	}
}

// OrderQuery membaca order beserta item dan menu item-nya.
type OrderQuery struct {
	DB *gorm.DB
}

func NewOrderQuery(db *gorm.DB) *OrderQuery {
	return &OrderQuery{DB: db}
}

func (q *OrderQuery) withItems(ctx context.Context) *gorm.DB {
	return q.DB.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Items.MenuItem")
}

// FetchOrder dipakai tracking.Viewer untuk refetch.
func (q *OrderQuery) FetchOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := q.withItems(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch order %d: %w", id, err)
	}
	return &order, nil
}

// CurrentOrder: order terbaru untuk meja sesi, atau untuk customer jika tidak ada meja.
// Mengembalikan nil tanpa error jika belum ada order.
func (q *OrderQuery) CurrentOrder(ctx context.Context, sc SessionContext) (*models.Order, error) {
	query := q.withItems(ctx).Order("created_at DESC").Order("id DESC").Limit(1)
	switch {
	case sc.TableID != 0:
		query = query.Where("table_id = ?", sc.TableID)
	case sc.IsSignedIn():
		query = query.Where("customer_id = ?", *sc.CustomerID)
	default:
		return nil, nil
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("fetch current order: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// History semua order milik customer, terbaru dulu.
func (q *OrderQuery) History(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := q.withItems(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("fetch order history: %w", err)
	}
	return orders, nil
}

// CanView: order boleh diikuti jika milik meja sesi atau milik customer.
func CanView(order *models.Order, sc SessionContext) bool {
	if sc.TableID != 0 && order.TableID == sc.TableID {
		return true
	}
	return sc.IsSignedIn() && order.CustomerID != nil && *order.CustomerID == *sc.CustomerID
}
