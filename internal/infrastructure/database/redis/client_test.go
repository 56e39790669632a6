package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/EntityRisk-Intelligence/internal/config"
	"github.com/turtacn/EntityRisk-Intelligence/internal/infrastructure/monitoring/logging"
)

func TestApplyDefaults(t *testing.T) {
	opts := &Options{}
	applyDefaults(opts)

	assert.Equal(t, "standalone", opts.Mode)
	assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Equal(t, 3*time.Second, opts.WriteTimeout)
}

func TestApplyDefaults_PreservesExplicit(t *testing.T) {
	opts := &Options{
		Mode:     "cluster",
		Addrs:    []string{"a:6379", "b:6379"},
		PoolSize: 50,
	}
	applyDefaults(opts)

	assert.Equal(t, "cluster", opts.Mode)
	assert.Equal(t, []string{"a:6379", "b:6379"}, opts.Addrs)
	assert.Equal(t, 50, opts.PoolSize)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.RedisConfig{
		Addr:     "redis.internal:6380",
		Password: "secret",
		DB:       2,
		PoolSize: 20,
	}
	opts := OptionsFromConfig(cfg)

	assert.Equal(t, "standalone", opts.Mode)
	assert.Equal(t, []string{"redis.internal:6380"}, opts.Addrs)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
}

func TestNewClient_NilOptions(t *testing.T) {
	_, err := NewClient(nil, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestClient_ClosedGuard(t *testing.T) {
	db, _ := redismock.NewClientMock()
	client := &Client{
		rdb:    db,
		opts:   &Options{},
		logger: logging.NewNopLogger(),
	}

	assert.NoError(t, client.Close())
	// Second close is a no-op.
	assert.NoError(t, client.Close())

	ctx := context.Background()
	assert.ErrorIs(t, client.Get(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "k", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.ZAdd(ctx, "k").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
}
