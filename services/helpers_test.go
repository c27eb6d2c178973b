package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/qr-ordering/database"
	"github.com/yeremiapane/qr-ordering/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedTables(db, 9))
	return db
}

// fixedClock 15 Jan 2024 17:30 UTC = 16 Jan 2024 00:30 di Bangkok.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2024, 1, 15, 17, 30, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func bangkok(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	return loc
}

func newTestSessionService(db *gorm.DB, clock *fixedClock) *SessionService {
	s := NewSessionService(db, 2*time.Hour, nil)
	s.Now = clock.Now
	s.TakeoutTableID = 9
	return s
}

func newTestOrderService(t *testing.T, db *gorm.DB, clock *fixedClock) *OrderService {
	gen := NewOrderIDGenerator(bangkok(t))
	gen.Now = clock.Now
	return NewOrderService(db, gen)
}

func startSession(t *testing.T, db *gorm.DB, tableID uint) SessionContext {
	t.Helper()
	s := NewSessionService(db, 2*time.Hour, nil)
	session, err := s.StartByTable(context.Background(), tableID)
	require.NoError(t, err)
	return SessionContext{SessionID: session.ID, TableID: session.TableID}
}

func seedMenuItem(t *testing.T, db *gorm.DB, name string, price string, available bool) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Category:    "main",
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&item).Error)
	if !available {
		// default:true di kolom membuat false diabaikan saat Create
		require.NoError(t, db.Model(&item).Update("is_available", false).Error)
		item.IsAvailable = false
	}
	return item
}

type fakeSessionCache struct {
	mu      sync.Mutex
	entries map[string]models.TableSession
	deleted []string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{entries: map[string]models.TableSession{}}
}

func (f *fakeSessionCache) Get(_ context.Context, id string) (*models.TableSession, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.entries[id]
	if !ok {
		return nil, false
	}
	return &s, true
}

func (f *fakeSessionCache) Set(_ context.Context, s *models.TableSession, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[s.ID] = *s
}

func (f *fakeSessionCache) Delete(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	f.deleted = append(f.deleted, id)
}
