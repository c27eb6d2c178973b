package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status order
const (
	OrderStatusPending   = "pending"
	OrderStatusCooking   = "cooking"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Status pembayaran
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_id"`
	TableID       uint            `gorm:"index;not null" json:"table_id"`
	CustomerID    *string         `gorm:"type:varchar(64);index" json:"customer_id"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;references:OrderID" json:"order_items,omitempty"`
}

// IsOpen: belum dibayar dan belum berada di status terminal.
// Order yang open menjadi target penambahan item dari keranjang berikutnya.
func (o *Order) IsOpen() bool {
	return o.PaymentStatus == PaymentStatusUnpaid &&
		o.Status != OrderStatusCancelled &&
		o.Status != OrderStatusCompleted
}

// StepIndex memetakan status ke posisi progress bar tracking.
// pending=0 ... completed=3, status lain (termasuk cancelled) jatuh ke 0.
func StepIndex(status string) int {
	switch status {
	case OrderStatusPending:
		return 0
	case OrderStatusCooking:
		return 1
	case OrderStatusServed:
		return 2
	case OrderStatusCompleted:
		return 3
	default:
		return 0
	}
}

var orderTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusCooking, OrderStatusCancelled},
	OrderStatusCooking: {OrderStatusServed, OrderStatusCancelled},
	OrderStatusServed:  {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition mengecek apakah perpindahan status diizinkan.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ItemsTotal menjumlahkan price x quantity dari item yang sudah dimuat.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
