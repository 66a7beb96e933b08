package dispatch

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"AmplyBrain/internal/action"
	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/pkg/logger"
)

// RedisConfig 描述 Redis 队列的连接参数。
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key 是动作列表的键名，空值回落到默认键。
	Key string
}

const defaultRedisKey = "amply:actions:auto"

// RedisQueue 用 Redis List 实现动作队列：LPUSH 入队、BRPOP 出队。
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *slog.Logger
}

// NewRedisQueue 创建并探活 Redis 队列。
func NewRedisQueue(ctx context.Context, cfg RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "无法连接到 Redis")
	}
	key := cfg.Key
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisQueue{client: client, key: key, log: logger.Named("dispatch.redis")}, nil
}

// Enqueue 实现 Producer 接口。
func (q *RedisQueue) Enqueue(ctx context.Context, act action.Action) error {
	body, err := json.Marshal(act)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "序列化动作失败")
	}
	if err := q.client.LPush(ctx, q.key, body).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "动作入队失败")
	}
	return nil
}

// Consume 实现 Consumer 接口。无法解码的消息丢弃并记日志，不阻塞
// 后续消费。
func (q *RedisQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		result, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if err != nil {
			if stdErrors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return xerrors.Wrap(xerrors.CodeQueueFailure, err, "消费队列失败")
		}
		// BRPOP 返回 [key, value]
		if len(result) < 2 {
			continue
		}
		var act action.Action
		if err := json.Unmarshal([]byte(result[1]), &act); err != nil {
			q.log.Error("丢弃无法解码的队列消息", slog.Any("error", err))
			continue
		}
		if err := handler(ctx, act); err != nil {
			return err
		}
	}
}

// Close 实现 Queue 接口。
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
