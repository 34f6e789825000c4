package challenge

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/peergate/internal/domain/repository"
)

// memoryRegistry implementa Registry en memoria, para desarrollo y testing
// o despliegues de un solo proceso.
type memoryRegistry struct {
	ttl   time.Duration
	c     *gocache.Cache
	mu    sync.Mutex
	clock func() time.Time
}

type memoryEntry struct {
	clientID  string
	expiresAt time.Time
	consumed  bool
}

// NewMemory crea un registro en memoria con el TTL dado (0 = DefaultTTL).
func NewMemory(ttl time.Duration) Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// Las entradas viven ttl+grace en el cache para que un token consumido o
	// expirado siga siendo distinguible de uno inexistente.
	return &memoryRegistry{
		ttl:   ttl,
		c:     gocache.New(ttl+graceWindow, time.Minute),
		clock: time.Now,
	}
}

func (r *memoryRegistry) Issue(ctx context.Context, clientID string) (string, error) {
	tok, err := newToken()
	if err != nil {
		return "", err
	}
	entry := &memoryEntry{
		clientID:  clientID,
		expiresAt: r.clock().Add(r.ttl),
	}
	r.c.SetDefault(tok, entry)
	return tok, nil
}

func (r *memoryRegistry) Resolve(ctx context.Context, token string) (string, error) {
	v, ok := r.c.Get(token)
	if !ok {
		return "", repository.ErrTokenNotFound
	}
	entry := v.(*memoryEntry)

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.consumed {
		return "", repository.ErrTokenConsumed
	}
	if r.clock().After(entry.expiresAt) {
		return "", repository.ErrTokenExpired
	}
	return entry.clientID, nil
}

func (r *memoryRegistry) Consume(ctx context.Context, token string) error {
	v, ok := r.c.Get(token)
	if !ok {
		return repository.ErrTokenNotFound
	}
	entry := v.(*memoryEntry)

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.consumed {
		return repository.ErrTokenConsumed
	}
	if r.clock().After(entry.expiresAt) {
		return repository.ErrTokenExpired
	}
	entry.consumed = true
	return nil
}
