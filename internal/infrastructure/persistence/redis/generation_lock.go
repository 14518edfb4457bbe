// Package redis 提供 Redis 生成互斥锁实现
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// releaseScript 仅当持有者一致时才删除锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GenerationLock 同一生成目标的互斥锁
// 同一 target 同时最多一个生成运行；不同 target 互不影响。
type GenerationLock struct {
	client *Client
}

// NewGenerationLock 创建生成互斥锁
func NewGenerationLock(client *Client) *GenerationLock {
	return &GenerationLock{client: client}
}

func lockKey(targetID string) string {
	return "genlock:" + targetID
}

// Acquire 尝试获取目标锁，token 标识持有者
// 返回 false 表示已有进行中的生成。
func (l *GenerationLock) Acquire(ctx context.Context, targetID, token string, ttl time.Duration) (bool, error) {
	ctx, span := tracer.Start(ctx, "genlock.Acquire")
	span.SetAttributes(
		attribute.String("genlock.target", targetID),
		attribute.Int64("genlock.ttl_ms", ttl.Milliseconds()),
	)
	defer span.End()

	ok, err := l.client.rdb.SetNX(ctx, lockKey(targetID), token, ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	span.SetAttributes(attribute.Bool("genlock.acquired", ok))
	return ok, nil
}

// Release 释放目标锁，仅当 token 仍为当前持有者时生效
func (l *GenerationLock) Release(ctx context.Context, targetID, token string) error {
	ctx, span := tracer.Start(ctx, "genlock.Release")
	span.SetAttributes(attribute.String("genlock.target", targetID))
	defer span.End()

	if err := releaseScript.Run(ctx, l.client.rdb, []string{lockKey(targetID)}, token).Err(); err != nil && err != redis.Nil {
		span.RecordError(err)
		return fmt.Errorf("failed to release generation lock: %w", err)
	}
	return nil
}

// Extend 续期目标锁，长流式生成期间由心跳驱动
func (l *GenerationLock) Extend(ctx context.Context, targetID, token string, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "genlock.Extend")
	span.SetAttributes(attribute.String("genlock.target", targetID))
	defer span.End()

	val, err := l.client.rdb.Get(ctx, lockKey(targetID)).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("generation lock expired for target %s", targetID)
		}
		span.RecordError(err)
		return err
	}
	if val != token {
		return fmt.Errorf("generation lock for target %s held by another run", targetID)
	}
	return l.client.rdb.Expire(ctx, lockKey(targetID), ttl).Err()
}
