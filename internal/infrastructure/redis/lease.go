package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLeaseNotAcquired = errors.New("リースを取得できませんでした")
	ErrLeaseNotOwned    = errors.New("リースの所有者ではありません")
)

// 所有者確認と削除をアトミックに行う
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lease は一定時間だけ有効な排他権。複数インスタンスで定期処理を1台に絞るために使う
type Lease struct {
	client *redis.Client
	key    string
	value  string
}

// LeaseManager はリースを発行する
type LeaseManager struct {
	client *redis.Client
	prefix string
}

func NewLeaseManager(client *redis.Client) *LeaseManager {
	return &LeaseManager{client: client, prefix: "lease:"}
}

// TryAcquire はリースの取得を1回だけ試みる。他者が保持中なら ErrLeaseNotAcquired を返す
func (m *LeaseManager) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	key := m.prefix + name
	value := uuid.NewString()

	ok, err := m.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("リース取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLeaseNotAcquired
	}
	return &Lease{client: m.client, key: key, value: value}, nil
}

// Release はリースを解放する。期限切れで他者に渡っていた場合は ErrLeaseNotOwned
func (l *Lease) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("リース解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLeaseNotOwned
	}
	return nil
}
