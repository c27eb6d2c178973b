package services

import (
	"sync"

	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
)

const publisherQueueSize = 256

// publisherQueue menjalankan satu OrderEventPublisher di goroutine sendiri
// supaya broker atau client KDS yang lambat tidak menahan ChangeMonitor.
type publisherQueue struct {
	pub OrderEventPublisher
	ch  chan tracking.Change

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newPublisherQueue(pub OrderEventPublisher, size int) *publisherQueue {
	if size <= 0 {
		size = publisherQueueSize
	}
	q := &publisherQueue{
		pub:  pub,
		ch:   make(chan tracking.Change, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *publisherQueue) run() {
	defer close(q.done)
	for change := range q.ch {
		if err := q.pub.PublishOrderChange(change); err != nil {
			utils.ErrorLogger.WithError(err).WithField("order_ref", change.OrderRef).Error("Error publishing order change")
		}
	}
}

// enqueue tidak pernah blocking. Kalau antrian penuh perubahan dibuang.
func (q *publisherQueue) enqueue(change tracking.Change) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- change:
		return true
	default:
		utils.ErrorLogger.WithField("order_ref", change.OrderRef).Warn("Publisher queue full, dropping order change")
		return false
	}
}

// close berhenti menerima perubahan lalu menunggu antrian habis.
func (q *publisherQueue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}
