package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCmdable は Set / Get のみを実装したテスト用の Cmdable です。
type memoryCmdable struct {
	goredis.Cmdable
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCmdable() *memoryCmdable {
	return &memoryCmdable{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCmdable) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (m *memoryCmdable) Get(ctx context.Context, key string) *goredis.StringCmd {
	if m.getErr != nil {
		return goredis.NewStringResult("", m.getErr)
	}
	v, ok := m.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func TestTokenDenylist_RevokeAndCheck(t *testing.T) {
	t.Parallel()

	store := newMemoryCmdable()
	denylist := NewTokenDenylist(store, "task-review:")
	ctx := context.Background()

	revoked, err := denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, denylist.Revoke(ctx, "jti-1", time.Hour))
	assert.Equal(t, time.Hour, store.ttls["task-review:revoked:jti-1"])

	revoked, err = denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenDenylist_SkipsExpiredOrEmpty(t *testing.T) {
	t.Parallel()

	store := newMemoryCmdable()
	denylist := NewTokenDenylist(store, "")

	require.NoError(t, denylist.Revoke(context.Background(), "jti-1", 0))
	require.NoError(t, denylist.Revoke(context.Background(), " ", time.Minute))
	assert.Empty(t, store.values)
}

func TestTokenDenylist_PropagatesErrors(t *testing.T) {
	t.Parallel()

	store := newMemoryCmdable()
	store.getErr = errors.New("connection refused")
	denylist := NewTokenDenylist(store, "")

	_, err := denylist.IsRevoked(context.Background(), "jti-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.getErr)
}

func TestNoopDenylist(t *testing.T) {
	t.Parallel()

	var d NoopDenylist
	require.NoError(t, d.Revoke(context.Background(), "jti", time.Hour))
	revoked, err := d.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}
