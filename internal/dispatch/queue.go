// Package dispatch 负责自动动作的排队与执行：trust=auto 的动作入队，
// 由单 worker 顺序消费并经安全执行包装落地。
package dispatch

import (
	"context"

	"AmplyBrain/internal/action"
)

// Handler 处理一条出队的动作。返回错误时由具体队列实现决定重试策略。
type Handler func(ctx context.Context, act action.Action) error

// Producer 把动作写入队列。
type Producer interface {
	Enqueue(ctx context.Context, act action.Action) error
}

// Consumer 持续消费队列直到 ctx 取消。
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
}

// Queue 是完整的队列后端。
type Queue interface {
	Producer
	Consumer
	Close() error
}
