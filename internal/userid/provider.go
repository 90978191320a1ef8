package userid

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultKey = "chess_app_user_id"
	// HeaderName carries the id on requests to the game server.
	HeaderName = "X-User-Id"
)

// Provider hands out a stable per-installation identifier.
// The first call generates a UUID v4 unless the store already holds one.
type Provider struct {
	store  Store
	key    string
	logger *zap.Logger

	mu     sync.Mutex
	cached string
}

func NewProvider(store Store, key string, logger *zap.Logger) *Provider {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{store: store, key: key, logger: logger}
}

func (p *Provider) UserID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != "" {
		return p.cached, nil
	}

	existing, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		return "", fmt.Errorf("load user id: %w", err)
	}
	if ok && existing != "" {
		p.cached = existing
		return existing, nil
	}

	fresh := uuid.NewString()
	stored, err := p.store.SetIfAbsent(ctx, p.key, fresh)
	if err != nil {
		return "", fmt.Errorf("store user id: %w", err)
	}
	if !stored {
		// Another process won the race; use its value.
		existing, _, err = p.store.Get(ctx, p.key)
		if err != nil {
			return "", fmt.Errorf("reload user id: %w", err)
		}
		fresh = existing
	} else {
		p.logger.Info("user_id_created", zap.String("key", p.key))
	}
	p.cached = fresh
	return fresh, nil
}

// Header returns the request header carrying the id, for use with the stream client.
func (p *Provider) Header(ctx context.Context) map[string]string {
	id, err := p.UserID(ctx)
	if err != nil {
		p.logger.Warn("user_id_unavailable", zap.Error(err))
		return nil
	}
	return map[string]string{HeaderName: id}
}
