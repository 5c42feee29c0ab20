package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
	// ErrCacheStale は読み取り後に無効化されたため保存しなかったことを示す
	ErrCacheStale = errors.New("キャッシュの世代が古いため保存しませんでした")
)

// 世代キーの保持期間。空席数のTTLより十分長くする
const generationTTL = 24 * time.Hour

// 世代が読み取り時から変わっていなければ空席数を保存する
var setIfGenerationScript = redis.NewScript(`
	local cur = redis.call("GET", KEYS[2])
	if (cur or "0") ~= ARGV[1] then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
`)

// SeatCache はイベントごとの空席数をキャッシュする。
// 無効化のたびに世代を進め、無効化より前に読んだ件数で上書きしないようにする
type SeatCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client, ttl time.Duration) *SeatCache {
	return &SeatCache{client: client, ttl: ttl}
}

// GetAvailableCount はイベントの空席数をキャッシュから取得する
func (c *SeatCache) GetAvailableCount(ctx context.Context, eventID string) (int, error) {
	val, err := c.client.Get(ctx, availableCountKey(eventID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// Generation はイベントの現在の世代を返す。DBから件数を読む前に取得する
func (c *SeatCache) Generation(ctx context.Context, eventID string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(eventID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return gen, nil
}

// SetAvailableCount は gen 以降に無効化されていなければ空席数を保存する。
// 無効化済みなら ErrCacheStale
func (c *SeatCache) SetAvailableCount(ctx context.Context, eventID string, count int, gen int64) error {
	keys := []string{availableCountKey(eventID), generationKey(eventID)}
	stored, err := setIfGenerationScript.Run(ctx, c.client, keys, gen, count, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	if stored == 0 {
		return ErrCacheStale
	}
	return nil
}

// Invalidate は指定イベントのキャッシュをまとめて無効化し、世代を進める
func (c *SeatCache) Invalidate(ctx context.Context, eventIDs ...string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	keys := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		keys[i] = availableCountKey(id)
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range eventIDs {
			pipe.Incr(ctx, generationKey(id))
			pipe.Expire(ctx, generationKey(id), generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availableCountKey(eventID string) string {
	return fmt.Sprintf("seats:available:%s", eventID)
}

func generationKey(eventID string) string {
	return fmt.Sprintf("seats:gen:%s", eventID)
}
