package tracking

import (
	"context"
	"sync"

	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
)

// Fetcher memuat order lengkap dengan item dan menu item.
type Fetcher interface {
	FetchOrder(ctx context.Context, id uint) (*models.Order, error)
}

// Snapshot adalah state yang ditampilkan halaman tracking.
type Snapshot struct {
	Order     *models.Order `json:"order"`
	Step      int           `json:"step"`
	Cancelled bool          `json:"cancelled"`
	// Refetched false berarti snapshot berasal dari patch optimistik.
	Refetched bool `json:"refetched"`
}

func newSnapshot(order *models.Order, refetched bool) Snapshot {
	return Snapshot{
		Order:     order,
		Step:      models.StepIndex(order.Status),
		Cancelled: order.Status == models.OrderStatusCancelled,
		Refetched: refetched,
	}
}

// Viewer mengikuti tepat satu order: patch dari push lalu refetch penuh.
type Viewer struct {
	hub      *Hub
	fetcher  Fetcher
	onUpdate func(Snapshot)

	mu       sync.Mutex
	watching uint
	cancel   context.CancelFunc
	done     chan struct{}

	emitMu  sync.Mutex
	current *models.Order
}

func NewViewer(hub *Hub, fetcher Fetcher, onUpdate func(Snapshot)) *Viewer {
	return &Viewer{hub: hub, fetcher: fetcher, onUpdate: onUpdate}
}

// Watch mulai mengikuti orderID. Jika viewer sedang mengikuti order lain,
// subscription lama dilepas dulu.
func (v *Viewer) Watch(ctx context.Context, orderID uint) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancel != nil && v.watching == orderID {
		return
	}
	v.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	sub := v.hub.Subscribe(orderID)

	v.watching = orderID
	v.cancel = cancel
	v.done = done

	go func() {
		defer close(done)
		defer sub.Close()
		v.run(runCtx, sub)
	}()
}

// Stop melepas subscription aktif dan menunggu goroutine selesai.
func (v *Viewer) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
}

func (v *Viewer) stopLocked() {
	if v.cancel == nil {
		return
	}
	v.cancel()
	<-v.done
	v.cancel = nil
	v.done = nil
	v.watching = 0
}

// Watching mengembalikan order id yang sedang diikuti (0 jika tidak ada).
func (v *Viewer) Watching() uint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.watching
}

func (v *Viewer) run(ctx context.Context, sub *Subscription) {
	refetch := make(chan struct{}, 1)
	requestRefetch := func() {
		select {
		case refetch <- struct{}{}:
		default:
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-refetch:
				v.refetch(ctx, sub.OrderID)
			}
		}
	}()
	defer wg.Wait()

	v.emitMu.Lock()
	v.current = nil
	v.emitMu.Unlock()
	requestRefetch()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			if change.Event == EventOrderUpdate && change.Order != nil {
				v.patch(change.Order)
			}
			requestRefetch()
		}
	}
}

func (v *Viewer) patch(row *models.Order) {
	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	var next models.Order
	if v.current != nil {
		next = *v.current
		next.Status = row.Status
		next.PaymentStatus = row.PaymentStatus
		next.TotalAmount = row.TotalAmount
		next.UpdatedAt = row.UpdatedAt
	} else {
		next = *row
	}
	v.current = &next
	v.emit(newSnapshot(&next, false))
}

func (v *Viewer) refetch(ctx context.Context, orderID uint) {
	order, err := v.fetcher.FetchOrder(ctx, orderID)
	if err != nil {
		if ctx.Err() == nil {
			utils.ErrorLogger.WithError(err).WithField("order_id", orderID).Error("Tracking refetch failed")
		}
		return
	}

	v.emitMu.Lock()
	defer v.emitMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	v.current = order
	v.emit(newSnapshot(order, true))
}

// emit dipanggil dengan emitMu terkunci.
func (v *Viewer) emit(s Snapshot) {
	if v.onUpdate != nil {
		v.onUpdate(s)
	}
}
