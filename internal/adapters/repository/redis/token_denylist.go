package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const revokedMarker = "revoked"

// TokenDenylist はログアウト済みトークンの jti を Redis に保持します。
// キーはトークンの残り有効期間で失効するため、明示的な掃除は不要です。
type TokenDenylist struct {
	client goredis.Cmdable
	prefix string
}

// NewTokenDenylist は TokenDenylist を生成します。
func NewTokenDenylist(client goredis.Cmdable, prefix string) *TokenDenylist {
	return &TokenDenylist{client: client, prefix: prefix + "revoked:"}
}

// Revoke は jti を ttl の間だけ失効扱いにします。ttl が 0 以下なら何もしません。
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" || ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(jti), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("redis: revoke token: %w", err)
	}
	return nil
}

// IsRevoked は jti が失効済みかを返します。
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	_, err := d.client.Get(ctx, d.key(jti)).Result()
	switch {
	case errors.Is(err, goredis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis: check revoked token: %w", err)
	default:
		return true, nil
	}
}

func (d *TokenDenylist) key(jti string) string {
	return d.prefix + jti
}

// NoopDenylist は Redis 未設定時に利用する失効リストです。ログアウトしてもトークンは期限まで有効です。
type NoopDenylist struct{}

// Revoke は何もしません。
func (NoopDenylist) Revoke(context.Context, string, time.Duration) error { return nil }

// IsRevoked は常に false を返します。
func (NoopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// NewClient は設定値から Redis クライアントを生成し、疎通を確認します。
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}
