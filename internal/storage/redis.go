package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/mintcart/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisSlot Redis 后端的持久化槽，写入后经 Pub/Sub 通知其他会话
type RedisSlot struct {
	client  *redis.Client
	key     string
	channel string
}

// NewRedisSlot 创建 Redis 槽
func NewRedisSlot(client *redis.Client, prefix, shopperKey string) *RedisSlot {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "mc"
	}
	key := fmt.Sprintf("%s:cart:%s", prefix, shopperKey)
	return &RedisSlot{
		client:  client,
		key:     key,
		channel: key + ":changed",
	}
}

// Read 读取信封字节
func (s *RedisSlot) Read(ctx context.Context) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, ErrUnavailable
	}
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Write 写入信封并发布变更通知
func (s *RedisSlot) Write(ctx context.Context, payload []byte, origin string) error {
	if s == nil || s.client == nil {
		return ErrUnavailable
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.client.Publish(ctx, s.channel, origin).Err(); err != nil {
		// 通知失败不影响写入本身，其他会话靠轮询兜底
		logger.Warnw("cart_slot_publish_failed", "key", s.key, "error", err)
	}
	return nil
}

// Delete 删除槽并发布变更通知
func (s *RedisSlot) Delete(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrUnavailable
	}
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := s.client.Publish(ctx, s.channel, "").Err(); err != nil {
		logger.Warnw("cart_slot_publish_failed", "key", s.key, "error", err)
	}
	return nil
}

// Watch 订阅槽变更通知
func (s *RedisSlot) Watch(ctx context.Context, handler func(origin string)) (func(), error) {
	if s == nil || s.client == nil {
		return nil, ErrUnavailable
	}
	pubsub := s.client.Subscribe(ctx, s.channel)
	go func() {
		for msg := range pubsub.Channel() {
			handler(msg.Payload)
		}
	}()
	cancel := func() {
		if err := pubsub.Close(); err != nil {
			logger.Warnw("cart_slot_unsubscribe_failed", "key", s.key, "error", err)
		}
	}
	return cancel, nil
}
