package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/qr-ordering/cart"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
	"gorm.io/gorm"
)

// Pesan hasil CreateOrder, ditampilkan apa adanya ke pelanggan.
const (
	MsgOrderPlaced      = "Order placed successfully!"
	MsgNoSession        = "No active session found. Please scan QR code again."
	MsgInvalidSession   = "Session expired or invalid. Please scan QR code again."
	MsgOrderFailed      = "Failed to create order. Please try again."
	MsgItemsFailed      = "Failed to add items to order."
	MsgUnexpected       = "An unexpected error occurred."
	MsgEmptyCart        = "Your cart is empty."
	MsgInvalidQuantity  = "Item quantity must be greater than zero."
	MsgInvalidPrice     = "Item price cannot be negative."
	MsgItemsUnavailable = "Some items are no longer available."
)

const (
	PriceSourceCart = "cart"
	PriceSourceMenu = "menu"

	defaultIDRetries = 3
)

// OrderResult dikirim apa adanya sebagai body POST /menu/orders.
type OrderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

func orderFailure(msg string) OrderResult {
	return OrderResult{Success: false, Message: msg}
}

// OrderService adalah Order Ledger.
type OrderService struct {
	DB          *gorm.DB
	IDs         OrderIDSource
	PriceSource string
	IDRetries   int
}

func NewOrderService(db *gorm.DB, ids OrderIDSource) *OrderService {
	return &OrderService{
		DB:          db,
		IDs:         ids,
		PriceSource: PriceSourceCart,
		IDRetries:   defaultIDRetries,
	}
}

// CreateOrder memasukkan isi keranjang ke order open milik meja, atau membuat order baru.
// Kegagalan yang diharapkan dikembalikan sebagai OrderResult, bukan error.
func (s *OrderService) CreateOrder(ctx context.Context, sc SessionContext, items []cart.Item) OrderResult {
	if !sc.HasSession() {
		return orderFailure(MsgNoSession)
	}

	var session models.TableSession
	err := s.DB.WithContext(ctx).Where("id = ?", sc.SessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return orderFailure(MsgInvalidSession)
	}
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("session_id", sc.SessionID).Error("Error reading table session")
		return orderFailure(MsgUnexpected)
	}
	// Expiry tidak dicek ulang di sini; gate sudah melakukannya.
	if session.Status != models.SessionStatusActive {
		return orderFailure(MsgInvalidSession)
	}

	if len(items) == 0 {
		return orderFailure(MsgEmptyCart)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return orderFailure(MsgInvalidQuantity)
		}
		if item.Price.IsNegative() {
			return orderFailure(MsgInvalidPrice)
		}
	}

	if s.PriceSource == PriceSourceMenu {
		priced, err := s.priceFromMenu(ctx, items)
		if err != nil {
			if errors.Is(err, errItemUnavailable) {
				return orderFailure(MsgItemsUnavailable)
			}
			utils.ErrorLogger.WithError(err).Error("Error reading menu prices")
			return orderFailure(MsgUnexpected)
		}
		items = priced
	}

	order, err := s.resolveOrder(ctx, session.TableID, sc.CustomerID)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("table_id", session.TableID).Error("Error creating order")
		return orderFailure(MsgOrderFailed)
	}

	if err := s.insertItems(ctx, order.OrderID, items); err != nil {
		// Baris order tidak di-rollback.
		utils.ErrorLogger.WithError(err).WithField("order_id", order.OrderID).Error("Error inserting order items")
		return orderFailure(MsgItemsFailed)
	}

	if err := s.recomputeTotal(ctx, order); err != nil {
		utils.ErrorLogger.WithError(err).WithField("order_id", order.OrderID).Error("Error updating order total")
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"table_id": order.TableID,
		"items":    len(items),
	}).Info("Order placed")

	return OrderResult{Success: true, Message: MsgOrderPlaced, OrderID: order.OrderID}
}

// resolveOrder mengembalikan order terbaru meja jika masih open, jika tidak membuat order baru.
// Bentrok order_id (dua submit pertama bersamaan) diulang dengan id baru.
func (s *OrderService) resolveOrder(ctx context.Context, tableID uint, customerID *string) (*models.Order, error) {
	retries := s.IDRetries
	if retries <= 0 {
		retries = defaultIDRetries
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		var order models.Order
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var latest models.Order
			err := tx.Where("table_id = ?", tableID).
				Order("created_at DESC").
				Order("id DESC").
				First(&latest).Error
			if err == nil && latest.IsOpen() {
				order = latest
				return nil
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			orderID, err := s.IDs.Next(ctx, tx)
			if err != nil {
				return err
			}
			order = models.Order{
				OrderID:       orderID,
				TableID:       tableID,
				CustomerID:    customerID,
				TotalAmount:   decimal.Zero,
				Status:        models.OrderStatusPending,
				PaymentStatus: models.PaymentStatusUnpaid,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			return recordChange(tx, tableOrders, order.ID, order.OrderID, models.ChangeInsert)
		})
		if err == nil {
			return &order, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
		utils.InfoLogger.WithField("attempt", attempt+1).Warn("Duplicate order id, retrying")
	}
	return nil, fmt.Errorf("generate order id after %d attempts: %w", retries, lastErr)
}

func (s *OrderService) insertItems(ctx context.Context, orderRef string, items []cart.Item) error {
	rows := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		row := models.OrderItem{
			OrderID:    orderRef,
			MenuItemID: item.ID,
			Quantity:   item.Quantity,
			Price:      item.Price,
		}
		if item.Note != "" {
			note := item.Note
			row.Notes = &note
		}
		rows = append(rows, row)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			if err := recordChange(tx, tableOrderItems, row.ID, orderRef, models.ChangeInsert); err != nil {
				return err
			}
		}
		return nil
	})
}

// recomputeTotal menjumlahkan ulang semua item order, termasuk dari submit sebelumnya.
func (s *OrderService) recomputeTotal(ctx context.Context, order *models.Order) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.OrderItem
		if err := tx.Where("order_id = ?", order.OrderID).Find(&items).Error; err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.Subtotal())
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now(),
		}).Error; err != nil {
			return err
		}
		order.TotalAmount = total
		return recordChange(tx, tableOrders, order.ID, order.OrderID, models.ChangeUpdate)
	})
}

var errItemUnavailable = errors.New("menu item unknown or unavailable")

func (s *OrderService) priceFromMenu(ctx context.Context, items []cart.Item) ([]cart.Item, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	var menu []models.MenuItem
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&menu).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	priced := make([]cart.Item, len(items))
	for i, item := range items {
		m, ok := byID[item.ID]
		if !ok || !m.IsAvailable {
			return nil, fmt.Errorf("item %d: %w", item.ID, errItemUnavailable)
		}
		item.Price = m.Price
		item.Name = m.Name
		priced[i] = item
	}
	return priced, nil
}

// UpdateStatus dipakai staff dapur untuk memajukan status order.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !models.CanTransition(order.Status, status) {
			return fmt.Errorf("%s -> %s: %w", order.Status, status, ErrInvalidTransition)
		}

		order.Status = status
		order.UpdatedAt = time.Now()
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"status":     order.Status,
			"updated_at": order.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		return recordChange(tx, tableOrders, order.ID, order.OrderID, models.ChangeUpdate)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.OrderID,
		"status":   order.Status,
	}).Info("Order status updated")
	return &order, nil
}

// MarkPaid menandai order lunas. Order yang sudah lunas tidak diubah lagi.
func (s *OrderService) MarkPaid(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}

		order.PaymentStatus = models.PaymentStatusPaid
		order.UpdatedAt = time.Now()
		if err := tx.Model(&order).Updates(map[string]interface{}{
			"payment_status": order.PaymentStatus,
			"updated_at":     order.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		return recordChange(tx, tableOrders, order.ID, order.OrderID, models.ChangeUpdate)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("order_id", order.OrderID).Info("Order marked as paid")
	return &order, nil
}
