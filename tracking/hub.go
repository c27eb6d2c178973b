package tracking

import (
	"sync"
	"time"

	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
)

// Event types
const (
	EventOrderUpdate     = "order_update"
	EventOrderItemUpdate = "order_item_update"
)

// Change adalah notifikasi bahwa baris orders atau order_items milik satu order berubah.
// Order berisi baris orders terbaru (bisa parsial), dipakai sebagai patch optimistik.
type Change struct {
	Event     string        `json:"event"`
	Action    string        `json:"action"`
	OrderID   uint          `json:"order_id"`
	OrderRef  string        `json:"order_ref"`
	RecordID  int64         `json:"record_id"`
	Order     *models.Order `json:"order,omitempty"`
	ChangedAt time.Time     `json:"changed_at"`
}

const subscriptionBuffer = 16

// Hub menampung subscriber per internal order id.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[*Subscription]struct{})}
}

type Subscription struct {
	OrderID uint
	C       <-chan Change

	ch   chan Change
	hub  *Hub
	once sync.Once
}

// Subscribe mendaftarkan listener untuk satu order. Panggil Close saat selesai.
func (h *Hub) Subscribe(orderID uint) *Subscription {
	ch := make(chan Change, subscriptionBuffer)
	sub := &Subscription{OrderID: orderID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[*Subscription]struct{})
	}
	h.subs[orderID][sub] = struct{}{}
	return sub
}

// Close melepas subscription; aman dipanggil berulang kali.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		if set, ok := s.hub.subs[s.OrderID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.OrderID)
			}
		}
		close(s.ch)
	})
}

// Publish mengirim perubahan ke semua subscriber order tersebut tanpa blocking.
// Jika buffer subscriber penuh perubahan dibuang: subscriber itu sudah punya
// perubahan yang menunggu dan akan refetch.
func (h *Hub) Publish(change Change) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subs[change.OrderID] {
		select {
		case sub.ch <- change:
			delivered++
		default:
			utils.InfoLogger.WithField("order_id", change.OrderID).Warn("Tracking subscriber buffer full, dropping change")
		}
	}
	return delivered
}

// Subscribers jumlah subscriber aktif untuk satu order.
func (h *Hub) Subscribers(orderID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}
