package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
)

// SessionCache menyimpan hasil lookup sesi untuk gate yang berjalan di setiap request.
type SessionCache interface {
	Get(ctx context.Context, id string) (*models.TableSession, bool)
	Set(ctx context.Context, session *models.TableSession, ttl time.Duration)
	Delete(ctx context.Context, id string)
}

type NoopSessionCache struct{}

func (NoopSessionCache) Get(context.Context, string) (*models.TableSession, bool) { return nil, false }
func (NoopSessionCache) Set(context.Context, *models.TableSession, time.Duration) {}
func (NoopSessionCache) Delete(context.Context, string)                           {}

const (
	sessionCachePrefix = "table_session:"
	maxSessionCacheTTL = time.Minute
)

type RedisSessionCache struct {
	client *redis.Client
}

func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

// ConnectRedis membuka client dan memastikan Redis dapat dijangkau.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	utils.InfoLogger.Printf("Redis connected (%s)", addr)
	return client, nil
}

func (c *RedisSessionCache) Get(ctx context.Context, id string) (*models.TableSession, bool) {
	data, err := c.client.Get(ctx, sessionCachePrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			utils.ErrorLogger.WithError(err).Error("Redis session cache get failed")
		}
		return nil, false
	}

	var session models.TableSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false
	}
	return &session, true
}

func (c *RedisSessionCache) Set(ctx context.Context, session *models.TableSession, ttl time.Duration) {
	if ttl > maxSessionCacheTTL {
		ttl = maxSessionCacheTTL
	}
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, sessionCachePrefix+session.ID, data, ttl).Err(); err != nil {
		utils.ErrorLogger.WithError(err).Error("Redis session cache set failed")
	}
}

func (c *RedisSessionCache) Delete(ctx context.Context, id string) {
	if err := c.client.Del(ctx, sessionCachePrefix+id).Err(); err != nil {
		utils.ErrorLogger.WithError(err).Error("Redis session cache delete failed")
	}
}

