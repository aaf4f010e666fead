// Package cache provides the Redis read-through cache for wallet rows.
// The database stays the source of truth; every balance mutation
// invalidates the cached wallet after commit.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledgerd/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cached wallet exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// WalletCache caches wallet rows keyed by (owner id, owner role).
type WalletCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWalletCache creates a wallet cache with the given TTL.
func NewWalletCache(client *redis.Client, ttl time.Duration) *WalletCache {
	return &WalletCache{client: client, ttl: ttl}
}

// GetWallet returns the cached wallet or ErrCacheMiss.
func (c *WalletCache) GetWallet(ctx context.Context, ownerID uint, ownerRole string) (*models.Wallet, error) {
	val, err := c.client.Get(ctx, walletKey(ownerID, ownerRole)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get failed: %w", err)
	}
	var wallet models.Wallet
	if err := json.Unmarshal([]byte(val), &wallet); err != nil {
		return nil, fmt.Errorf("cache decode failed: %w", err)
	}
	return &wallet, nil
}

// SetWallet stores the wallet under its owner key.
func (c *WalletCache) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	return c.client.Set(ctx, walletKey(wallet.OwnerID, wallet.OwnerRole), data, c.ttl).Err()
}

// InvalidateWallet drops the cached wallet for the owner key.
func (c *WalletCache) InvalidateWallet(ctx context.Context, ownerID uint, ownerRole string) error {
	return c.client.Del(ctx, walletKey(ownerID, ownerRole)).Err()
}

// HealthCheck pings Redis.
func (c *WalletCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *WalletCache) Close() error {
	return c.client.Close()
}

func walletKey(ownerID uint, ownerRole string) string {
	return fmt.Sprintf("wallet:%s:%d", ownerRole, ownerID)
}
