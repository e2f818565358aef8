package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/sweettreats-backend/internal/storage"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/multierr"
)

const (
	DefaultMaxStores    = 1024
	DefaultStoreIdleTTL = 30 * time.Minute
)

// Registry lazily opens one Store per cart scope over a shared backend. At most
// maxStores stores stay open; the least recently used one and any store idle
// longer than the TTL are closed. Cart state lives in the backend, so an
// evicted scope is restored on its next use.
type Registry struct {
	template Params

	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
	closed bool

	errMu    sync.Mutex
	closeErr error
}

// RegistryOption tunes a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	maxStores int
	idleTTL   time.Duration
}

// WithMaxStores caps the number of open stores. Non-positive values keep the
// default.
func WithMaxStores(n int) RegistryOption {
	return func(o *registryOptions) {
		if n > 0 {
			o.maxStores = n
		}
	}
}

// WithIdleTTL closes stores that have not been used for d. Non-positive values
// keep the default.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		if d > 0 {
			o.idleTTL = d
		}
	}
}

// NewRegistry builds a registry whose stores are opened with p. p.Scope is
// ignored; every other field is shared by all stores.
func NewRegistry(kv storage.KV, p Params, opts ...RegistryOption) (*Registry, error) {
	if kv == nil {
		return nil, errors.New("cart storage required")
	}
	o := registryOptions{maxStores: DefaultMaxStores, idleTTL: DefaultStoreIdleTTL}
	for _, opt := range opts {
		opt(&o)
	}

	p.KV = kv
	p.Scope = ""
	r := &Registry{template: p}
	r.stores = expirable.NewLRU[string, *Store](o.maxStores, r.evict, o.idleTTL)
	return r, nil
}

// evict runs whenever a store leaves the cache.
func (r *Registry) evict(scope string, s *Store) {
	if err := s.Close(); err != nil {
		r.errMu.Lock()
		r.closeErr = multierr.Append(r.closeErr, err)
		r.errMu.Unlock()
	}
	if r.template.Logger != nil {
		ctx := r.template.Logger.WithCartScope(context.Background(), scope)
		r.template.Logger.Debug(ctx, "cart store released")
	}
}

// Store returns the store for scope, opening it on first use. Each call
// refreshes the scope's idle deadline.
func (r *Registry) Store(ctx context.Context, scope string) (*Store, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = DefaultScope
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errClosed()
	}
	if s, ok := r.stores.Get(scope); ok {
		r.stores.Add(scope, s)
		return s, nil
	}
	// An expired entry may still be cached; removing it closes it.
	r.stores.Remove(scope)

	p := r.template
	p.Scope = scope
	p.Observers = append([]Observer(nil), r.template.Observers...)
	s, err := Open(ctx, p)
	if err != nil {
		return nil, err
	}
	r.stores.Add(scope, s)
	return s, nil
}

// Scopes lists the scopes currently open.
func (r *Registry) Scopes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Keys()
}

// Ping checks the shared backend.
func (r *Registry) Ping(ctx context.Context) error {
	return r.template.KV.Ping(ctx)
}

// Close closes every open store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.stores.Purge()

	r.errMu.Lock()
	defer r.errMu.Unlock()
	err := r.closeErr
	r.closeErr = nil
	return err
}
