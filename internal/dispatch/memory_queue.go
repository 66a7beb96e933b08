package dispatch

import (
	"context"
	"sync"

	"AmplyBrain/internal/action"
	xerrors "AmplyBrain/internal/errors"
)

// MemoryQueue 是基于 channel 的进程内队列，默认部署与测试使用。
type MemoryQueue struct {
	ch        chan action.Action
	closeOnce sync.Once
	done      chan struct{}
}

// NewMemoryQueue 创建进程内队列。size <= 0 时默认 256。
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{
		ch:   make(chan action.Action, size),
		done: make(chan struct{}),
	}
}

// Enqueue 实现 Producer 接口。队列满时阻塞直到有空位或 ctx 取消。
func (q *MemoryQueue) Enqueue(ctx context.Context, act action.Action) error {
	select {
	case <-q.done:
		return xerrors.New(xerrors.CodeQueueFailure, "队列已关闭")
	default:
	}
	select {
	case q.ch <- act:
		return nil
	case <-q.done:
		return xerrors.New(xerrors.CodeQueueFailure, "队列已关闭")
	case <-ctx.Done():
		return xerrors.Wrap(xerrors.CodeQueueFailure, ctx.Err(), "入队被取消")
	}
}

// Consume 实现 Consumer 接口，顺序处理直到 ctx 取消或队列关闭。
func (q *MemoryQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case act := <-q.ch:
			if err := handler(ctx, act); err != nil {
				return err
			}
		case <-q.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close 实现 Queue 接口。
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
