package handoff

import (
	"context"
	"encoding/json"
	"fmt"

	"voice-relay-server/src/configs"

	"github.com/redis/go-redis/v9"
)

// RedisSink 任务写入 Redis 列表供坐席端消费，并记录 任务ID -> 呼叫ID 索引
type RedisSink struct {
	client   redis.Cmdable
	queueKey string
	indexKey string
}

// NewRedisClient 按配置创建并检查 Redis 连接
func NewRedisClient(ctx context.Context, cfg configs.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("Redis地址未配置")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis连接失败: %v", err)
	}
	return client, nil
}

func NewRedisSink(client redis.Cmdable, service string) *RedisSink {
	queueKey, indexKey := redisKeys(service)
	return &RedisSink{client: client, queueKey: queueKey, indexKey: indexKey}
}

func redisKeys(service string) (queue, index string) {
	if service == "" {
		service = "relay"
	}
	return fmt.Sprintf("%s:handoff:queue", service), fmt.Sprintf("%s:handoff:tasks", service)
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Dispatch(ctx context.Context, task Task) error {
	bytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.queueKey, bytes)
		pipe.HSet(ctx, s.indexKey, task.ID, task.Descriptor.CallSid)
		return nil
	})
	return err
}

// lookup 按任务ID查询呼叫ID
func (s *RedisSink) lookup(ctx context.Context, taskID string) (string, error) {
	val, err := s.client.HGet(ctx, s.indexKey, taskID).Result()
	if err == redis.Nil {
		return "", ErrUnknownConversation
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
