package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
	"gorm.io/gorm"
)

const (
	DefaultSessionTTL = 2 * time.Hour
	TakeoutLabel      = "สั่งกลับบ้าน"
)

// SessionService adalah Session Store: membuat, menebus dan memvalidasi sesi meja.
type SessionService struct {
	DB             *gorm.DB
	TTL            time.Duration
	Cache          SessionCache
	TakeoutTableID uint
	Now            func() time.Time
}

func NewSessionService(db *gorm.DB, ttl time.Duration, cache SessionCache) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if cache == nil {
		cache = NoopSessionCache{}
	}
	return &SessionService{DB: db, TTL: ttl, Cache: cache, Now: time.Now}
}

// StartByTable memakai ulang sesi aktif meja jika ada, jika tidak membuat sesi baru.
func (s *SessionService) StartByTable(ctx context.Context, tableID uint) (*models.TableSession, error) {
	db := s.DB.WithContext(ctx)
	now := s.Now()

	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("start session for table %d: %w", tableID, ErrTableNotFound)
		}
		return nil, fmt.Errorf("lookup table %d: %w", tableID, err)
	}

	var existing models.TableSession
	err := db.Where("table_id = ? AND status = ? AND expires_at > ?", tableID, models.SessionStatusActive, now).
		Order("expires_at DESC").
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup active session for table %d: %w", tableID, err)
	}

	session := models.TableSession{
		ID:        uuid.NewString(),
		TableID:   tableID,
		Status:    models.SessionStatusActive,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.TTL),
	}
	if err := db.Create(&session).Error; err != nil {
		utils.ErrorLogger.WithError(err).WithField("table_id", tableID).Error("Error creating session")
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   tableID,
		"session_id": session.ID,
	}).Info("Table session started")
	return &session, nil
}

// Redeem menukar token dari QR menjadi sesi. Sesi harus ada, belum kedaluwarsa dan active.
func (s *SessionService) Redeem(ctx context.Context, token string) (*models.TableSession, error) {
	var session models.TableSession
	err := s.DB.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}

	if s.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	if session.Status != models.SessionStatusActive {
		return nil, ErrSessionInactive
	}
	return &session, nil
}

// Resolve membaca sesi berdasarkan id (nilai cookie) tanpa menilai statusnya.
func (s *SessionService) Resolve(ctx context.Context, id string) (*models.TableSession, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	if cached, ok := s.Cache.Get(ctx, id); ok {
		return cached, nil
	}

	var session models.TableSession
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session %s: %w", id, err)
	}

	if ttl := session.ExpiresAt.Sub(s.Now()); ttl > 0 {
		s.Cache.Set(ctx, &session, ttl)
	}
	return &session, nil
}

// ResolveActive seperti Resolve tetapi juga menolak sesi yang tidak aktif atau kedaluwarsa.
func (s *SessionService) ResolveActive(ctx context.Context, id string) (*models.TableSession, error) {
	session, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusActive {
		return nil, ErrSessionInactive
	}
	if !session.IsActive(s.Now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Expire menutup sesi meja (misal staff menutup meja setelah pembayaran).
func (s *SessionService) Expire(ctx context.Context, id string) error {
	result := s.DB.WithContext(ctx).Model(&models.TableSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.SessionStatusExpired,
			"updated_at": s.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("expire session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	s.Cache.Delete(ctx, id)

	utils.InfoLogger.WithField("session_id", id).Info("Table session expired")
	return nil
}

// TableLabel teks kartu meja di halaman main.
func (s *SessionService) TableLabel(tableID uint) string {
	if s.IsTakeout(tableID) {
		return TakeoutLabel
	}
	return "คุณกำลังนั่งที่โต๊ะ : " + strconv.FormatUint(uint64(tableID), 10)
}

func (s *SessionService) IsTakeout(tableID uint) bool {
	return s.TakeoutTableID != 0 && tableID == s.TakeoutTableID
}
