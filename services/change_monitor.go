package services

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/qr-ordering/database"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
	"gorm.io/gorm"
)

const (
	changeBatchSize = 100
	purgeInterval   = time.Hour
)

// ChangeMonitor membaca db_changes yang belum diproses lalu menyiarkannya
// ke tracking hub dan ke publisher lain (KDS, Kafka).
type ChangeMonitor struct {
	DB       *gorm.DB
	Hub      *tracking.Hub
	StopChan chan struct{}
	Interval time.Duration
	// Retention berapa lama baris yang sudah diproses disimpan; 0 = tidak pernah dihapus.
	Retention time.Duration
	// QueueSize kapasitas antrian per publisher, dibaca saat AddPublisher.
	QueueSize int

	publishers []*publisherQueue
	started    bool
	stopOnce   sync.Once
	done       chan struct{}
}

func NewChangeMonitor(db *gorm.DB, hub *tracking.Hub, interval time.Duration) *ChangeMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &ChangeMonitor{
		DB:        db,
		Hub:       hub,
		StopChan:  make(chan struct{}),
		Interval:  interval,
		QueueSize: publisherQueueSize,
		done:      make(chan struct{}),
	}
}

// AddPublisher mendaftarkan publisher eksternal. Setiap publisher punya antrian
// dan goroutine sendiri, jadi tracking hub tidak ikut menunggu.
func (cm *ChangeMonitor) AddPublisher(p OrderEventPublisher) {
	cm.publishers = append(cm.publishers, newPublisherQueue(p, cm.QueueSize))
}

func (cm *ChangeMonitor) Start() {
	cm.started = true
	go func() {
		defer close(cm.done)
		ticker := time.NewTicker(cm.Interval)
		defer ticker.Stop()
		purge := time.NewTicker(purgeInterval)
		defer purge.Stop()

		for {
			select {
			case <-ticker.C:
				cm.checkChanges()
			case <-purge.C:
				cm.purge()
			case <-cm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.WithField("interval", cm.Interval).Info("Change monitor started")
}

// Stop menghentikan polling, menunggu putaran terakhir selesai lalu
// mengosongkan antrian publisher.
func (cm *ChangeMonitor) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.StopChan)
		if cm.started {
			<-cm.done
		}
		for _, q := range cm.publishers {
			q.close()
		}
	})
}

func (cm *ChangeMonitor) checkChanges() int {
	var published []tracking.Change

	err := cm.DB.Transaction(func(tx *gorm.DB) error {
		var changes []models.DBChange
		if err := tx.Where("processed = ?", false).
			Order("id ASC").
			Limit(changeBatchSize).
			Find(&changes).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(changes))
		for _, change := range changes {
			c, ok, err := cm.toTrackingChange(tx, change)
			if err != nil {
				// biarkan unprocessed, dicoba lagi di tick berikutnya
				utils.ErrorLogger.WithError(err).WithField("change_id", change.ID).Error("Error loading order for change")
				continue
			}
			ids = append(ids, change.ID)
			if ok {
				published = append(published, c)
			}
		}
		if len(ids) == 0 {
			return nil
		}

		return tx.Model(&models.DBChange{}).
			Where("id IN ?", ids).
			Update("processed", true).Error
	})
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error processing db changes")
		return 0
	}

	for _, change := range published {
		cm.Hub.Publish(change)
	}
	for _, q := range cm.publishers {
		for _, change := range published {
			q.enqueue(change)
		}
	}

	if len(published) > 0 {
		utils.InfoLogger.Debugf("Successfully processed %d changes", len(published))
	}
	return len(published)
}

func (cm *ChangeMonitor) purge() {
	if cm.Retention <= 0 {
		return
	}
	if _, err := database.PurgeProcessedChanges(cm.DB, time.Now().Add(-cm.Retention)); err != nil {
		utils.ErrorLogger.WithError(err).Error("Error purging processed changes")
	}
}

// toTrackingChange mengembalikan ok=false untuk baris yang boleh dilewati
// (tabel lain atau order sudah hilang). Error lain berarti baris harus diulang.
func (cm *ChangeMonitor) toTrackingChange(tx *gorm.DB, change models.DBChange) (tracking.Change, bool, error) {
	out := tracking.Change{
		Action:    change.ActionType,
		OrderRef:  change.OrderRef,
		RecordID:  change.RecordID,
		ChangedAt: change.ChangedAt,
	}

	var order models.Order
	var err error
	switch change.TableName {
	case tableOrders:
		out.Event = tracking.EventOrderUpdate
		err = tx.First(&order, change.RecordID).Error
		if err == nil {
			out.Order = &order
		}
	case tableOrderItems:
		out.Event = tracking.EventOrderItemUpdate
		err = tx.Where("order_id = ?", change.OrderRef).First(&order).Error
	default:
		return out, false, nil
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, false, nil
		}
		return out, false, err
	}

	out.OrderID = order.ID
	out.OrderRef = order.OrderID

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":     change.TableName,
		"action":    change.ActionType,
		"record_id": change.RecordID,
	}).Debug("Processing change")
	return out, true, nil
}
