package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/sweettreats-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetGetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.ScopedKey("tab-a", "sweetTreatsCart")
	if err := client.Set(ctx, key, `[{"id":"1"}]`, 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != `[{"id":"1"}]` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != Nil {
		t.Fatalf("expected Nil after delete, got %v", err)
	}
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "v1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "v2", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second setnx to lose, ok=%v err=%v", ok, err)
	}
}

func TestPublishRecordsChannel(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Publish(context.Background(), client.ChannelKey("changes"), "payload"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := mock.published["st:channel:changes"]; len(got) != 1 || got[0] != "payload" {
		t.Fatalf("unexpected published messages %v", mock.published)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Ping(ctx); err == nil {
		t.Fatalf("expected error for uninitialized ping")
	}
	if _, err := client.Subscribe(ctx, "x"); err == nil {
		t.Fatalf("expected error for uninitialized subscribe")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close without raw client should be a no-op, got %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "st:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.ScopedKey("default", "sweetTreatsCart"); got != "st:default:sweetTreatsCart" {
		t.Fatalf("unexpected scoped key %s", got)
	}
	if got := client.ScopedKey("", "sweetTreatsCart"); got != "st:sweetTreatsCart" {
		t.Fatalf("empty scope should be skipped, got %s", got)
	}
	if got := client.ChannelKey("changes"); got != "st:channel:changes" {
		t.Fatalf("unexpected channel key %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatalf("expected error without url or address")
	}

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6379",
		DB:          2,
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/3", PoolSize: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 3 || opts.PoolSize != 4 {
		t.Fatalf("unexpected url options %+v", opts)
	}
}

type mockCmdable struct {
	data      map[string]string
	published map[string][]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:      make(map[string]string),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}
