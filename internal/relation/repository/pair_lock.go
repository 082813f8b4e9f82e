package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"realtime_chat_service/internal/relation/domain"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockTimeout 等不到 pair lock
var ErrLockTimeout = errors.New("pair lock not acquired")

// PairLocker 針對一對使用者 (無向) 序列化好友關係的變更
type PairLocker interface {
	Lock(ctx context.Context, a, b string) (unlock func(), err error)
}

// LocalPairLocker 單節點使用的 in-process lock
type LocalPairLocker struct {
	mu    sync.Mutex
	locks map[string]*pairEntry
}

type pairEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocalPairLocker create LocalPairLocker
func NewLocalPairLocker() *LocalPairLocker {
	return &LocalPairLocker{locks: map[string]*pairEntry{}}
}

// Lock 取得 pair lock, ctx 取消時放棄
func (l *LocalPairLocker) Lock(ctx context.Context, a, b string) (func(), error) {
	key := domain.PairKey(a, b)
	start := time.Now()

	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &pairEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ErrLockTimeout
	}
	metrics.PairLockWait.Observe(time.Since(start).Seconds())

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *LocalPairLocker) release(key string, e *pairEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// 只刪除自己持有的 lock
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisPairLocker 多節點共用的 pair lock (SET NX PX)
type RedisPairLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisPairLocker create RedisPairLocker, ttl 是 lock 最長持有時間
func NewRedisPairLocker(client *redis.Client, ttl time.Duration) *RedisPairLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisPairLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock 輪詢直到取得 lock 或 ctx 結束
func (r *RedisPairLocker) Lock(ctx context.Context, a, b string) (func(), error) {
	key := "lock:" + domain.PairKey(a, b)
	token := uuid.NewString()
	start := time.Now()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ErrLockTimeout
		}
	}
	metrics.PairLockWait.Observe(time.Since(start).Seconds())

	return func() {
		// 用新的 ctx, 原 ctx 可能已經取消
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := unlockScript.Run(unlockCtx, r.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logger.Log.Warn("release pair lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
