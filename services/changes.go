package services

import (
	"time"

	"github.com/yeremiapane/qr-ordering/models"
	"gorm.io/gorm"
)

const (
	tableOrders     = "orders"
	tableOrderItems = "order_items"
)

// recordChange menulis baris outbox di transaksi yang sama dengan mutasinya.
func recordChange(tx *gorm.DB, table string, recordID uint, orderRef, action string) error {
	return tx.Create(&models.DBChange{
		TableName:  table,
		RecordID:   int64(recordID),
		OrderRef:   orderRef,
		ActionType: action,
		ChangedAt:  time.Now(),
	}).Error
}
