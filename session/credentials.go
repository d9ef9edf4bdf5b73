package session

import (
	"context"
	"log/slog"
)

// Credentials adapts a Store to the credential interface the gateway
// consumes. Store failures are logged and read as an absent session; the
// gateway then behaves as if the user were signed out, which is the safest
// interpretation of a broken store.
type Credentials struct {
	store  Store
	logger *slog.Logger
}

// NewCredentials wraps a store for use as a gateway credential source.
func NewCredentials(store Store, log *slog.Logger) *Credentials {
	return &Credentials{store: store, logger: log}
}

func (c *Credentials) AccessToken(ctx context.Context) string {
	return c.get(ctx, KeyAccessToken)
}

func (c *Credentials) RefreshToken(ctx context.Context) string {
	return c.get(ctx, KeyRefreshToken)
}

func (c *Credentials) StoreAccessToken(ctx context.Context, token string) {
	c.set(ctx, KeyAccessToken, token)
}

func (c *Credentials) StoreRefreshToken(ctx context.Context, token string) {
	c.set(ctx, KeyRefreshToken, token)
}

// Clear removes every session key, the cached user profile included.
func (c *Credentials) Clear(ctx context.Context) {
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := c.store.Remove(ctx, key); err != nil {
			c.logger.WarnContext(ctx, "session store remove failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

func (c *Credentials) get(ctx context.Context, key string) string {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "session store read failed",
			slog.String("key", key), slog.String("error", err.Error()))
		return ""
	}
	return value
}

func (c *Credentials) set(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, key, value); err != nil {
		c.logger.WarnContext(ctx, "session store write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}
