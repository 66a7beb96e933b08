package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"AmplyBrain/internal/action"
	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/pkg/logger"
)

// RabbitMQConfig 描述 RabbitMQ 队列的连接参数。
type RabbitMQConfig struct {
	URL string
	// Queue 是声明的队列名，空值回落到默认队列。
	Queue string
}

const defaultRabbitQueue = "amply.actions.auto"

// RabbitMQQueue 用 AMQP 持久队列承载动作，手动 ack 保证至少一次投递。
type RabbitMQQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *slog.Logger
}

// NewRabbitMQQueue 创建并声明 RabbitMQ 队列。
func NewRabbitMQQueue(cfg RabbitMQConfig) (*RabbitMQQueue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "无法连接到 RabbitMQ")
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "打开 AMQP 通道失败")
	}
	name := cfg.Queue
	if name == "" {
		name = defaultRabbitQueue
	}
	if _, err := channel.QueueDeclare(name, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "声明队列失败")
	}
	// 单 worker 顺序消费，预取 1 条即可。
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "设置 QoS 失败")
	}
	return &RabbitMQQueue{
		conn:    conn,
		channel: channel,
		queue:   name,
		log:     logger.Named("dispatch.rabbitmq"),
	}, nil
}

// Enqueue 实现 Producer 接口，消息持久化投递。
func (q *RabbitMQQueue) Enqueue(ctx context.Context, act action.Action) error {
	body, err := json.Marshal(act)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "序列化动作失败")
	}
	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    act.ID,
		Body:         body,
	})
	if err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "动作入队失败")
	}
	return nil
}

// Consume 实现 Consumer 接口。处理成功 ack；无法解码的消息直接 ack
// 丢弃；handler 失败则 nack 不重回队列，避免毒消息死循环。
func (q *RabbitMQQueue) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := q.channel.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeQueueFailure, err, "订阅队列失败")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return xerrors.New(xerrors.CodeQueueFailure, "AMQP 通道已关闭")
			}
			var act action.Action
			if err := json.Unmarshal(delivery.Body, &act); err != nil {
				q.log.Error("丢弃无法解码的队列消息", slog.Any("error", err))
				_ = delivery.Ack(false)
				continue
			}
			if err := handler(ctx, act); err != nil {
				_ = delivery.Nack(false, false)
				return err
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close 实现 Queue 接口。
func (q *RabbitMQQueue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
