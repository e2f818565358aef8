package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/sweettreats-backend/pkg/redis"
)

type redisBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, message any) error
	Subscribe(ctx context.Context, channel string) (pkgredis.Subscription, error)
	Ping(ctx context.Context) error
	ScopedKey(scope, name string) string
	ChannelKey(name string) string
}

// Redis stores values under namespaced keys and announces every write on a
// pub/sub channel so stores in other processes can reload.
type Redis struct {
	client  redisBackend
	channel string
	logg    *logger.Logger
	hub     *hub

	mu     sync.Mutex
	sub    pkgredis.Subscription
	cancel context.CancelFunc
}

func NewRedis(client redisBackend, channel string, logg *logger.Logger) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if channel == "" {
		channel = "changes"
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Redis{
		client:  client,
		channel: client.ChannelKey(channel),
		logg:    logg,
		hub:     newHub(),
	}, nil
}

func (r *Redis) Get(ctx context.Context, scope, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.client.ScopedKey(normalizeScope(scope), key))
	if errors.Is(err, pkgredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, scope, key, value string) error {
	scope = normalizeScope(scope)
	if err := r.client.Set(ctx, r.client.ScopedKey(scope, key), value, 0); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	r.announce(ctx, Change{Scope: scope, Key: key, Origin: OriginFromContext(ctx)})
	return nil
}

func (r *Redis) Delete(ctx context.Context, scope, key string) error {
	scope = normalizeScope(scope)
	if err := r.client.Del(ctx, r.client.ScopedKey(scope, key)); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	r.announce(ctx, Change{Scope: scope, Key: key, Origin: OriginFromContext(ctx), Deleted: true})
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// announce publishes the change; a failed publish is logged but never fails the
// write, the value itself is already durable.
func (r *Redis) announce(ctx context.Context, change Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		r.logg.Error(ctx, "storage.redis.encode_change", err)
		return
	}
	if err := r.client.Publish(ctx, r.channel, string(payload)); err != nil {
		r.logg.Error(ctx, "storage.redis.publish_change", err)
	}
}

// Watch subscribes to external changes of (scope, key). A single redis
// subscription is shared by all watchers of this backend.
func (r *Redis) Watch(ctx context.Context, scope, key string) (<-chan Change, error) {
	if err := r.ensureSubscribed(); err != nil {
		return nil, err
	}
	return r.hub.watch(ctx, normalizeScope(scope), key), nil
}

func (r *Redis) ensureSubscribed() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := r.client.Subscribe(ctx, r.channel)
	if err != nil {
		cancel()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	r.sub = sub
	r.cancel = cancel

	go r.dispatch(ctx, sub)
	return nil
}

func (r *Redis) dispatch(ctx context.Context, sub pkgredis.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			var change Change
			if err := json.Unmarshal([]byte(payload), &change); err != nil {
				r.logg.Warn(r.logg.WithField(ctx, "payload", payload), "storage.redis.invalid_change")
				continue
			}
			r.hub.publish(change)
		}
	}
}

// Close stops the shared subscription. The underlying client is owned by the caller.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		return nil
	}
	r.cancel()
	err := r.sub.Close()
	r.sub = nil
	r.cancel = nil
	return err
}
