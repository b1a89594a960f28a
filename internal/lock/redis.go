package lock

import (
	"context"
	"fmt"
	"time"

	"TipsSync/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	keyPrefix    = "tips:lock:"
	pollInterval = 100 * time.Millisecond
)

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 多实例部署时的分布式日期锁（SET NX PX + token）
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *logrus.Logger
}

func NewRedisLocker(client *redis.Client, cfg *config.RedisConfig, logger *logrus.Logger) *RedisLocker {
	ttl, wait := cfg.LockTTL, cfg.LockWait
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if wait <= 0 {
		wait = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, logger: logger}
}

// Lock 轮询 SETNX 直到成功、等待超时（ErrLockTimeout）或 ctx 结束
func (r *RedisLocker) Lock(ctx context.Context, date string) (func(), error) {
	key := keyPrefix + date
	token := uuid.NewString()
	deadline := time.Now().Add(r.wait)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取日期锁失败: %w, date: %s", err, date)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w, date: %s", ErrLockTimeout, date)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	return func() {
		// 请求 ctx 可能已取消，解锁单独给超时
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := unlockScript.Run(unlockCtx, r.client, []string{key}, token).Err(); err != nil {
			r.logger.WithError(err).WithField("date", date).Warn("释放日期锁失败，等待过期")
		}
	}, nil
}
