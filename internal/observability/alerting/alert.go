// Package alerting 提供轻量的告警分发：严重事件被广播给所有已注册
// 的通知器，通知器失败不影响主流程。
package alerting

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"AmplyBrain/pkg/logger"
)

// Level 表示告警级别。
type Level string

const (
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Alert 是一条待分发的告警。
type Alert struct {
	Level     Level          `json:"level"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Notifier 把告警投递到某个渠道。
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert Alert) error
}

// Dispatcher 将告警广播给全部通知器。
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier
	log       *slog.Logger
}

// NewDispatcher 创建分发器，默认不带任何通知器。
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{log: logger.Named("alerting")}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

// Register 追加一个通知器。
func (d *Dispatcher) Register(n Notifier) {
	if n == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
}

// Dispatch 同步广播告警。单个通知器失败只记日志，继续投递其余渠道。
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	d.mu.RLock()
	notifiers := make([]Notifier, len(d.notifiers))
	copy(notifiers, d.notifiers)
	d.mu.RUnlock()

	for _, n := range notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			d.log.Error("告警投递失败",
				slog.String("notifier", n.Name()),
				slog.Any("error", err),
			)
		}
	}
}

// LogNotifier 把告警写入结构化日志，是默认渠道。
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier 创建日志通知器。
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.Named("alerting.log")}
}

// Name 实现 Notifier 接口。
func (n *LogNotifier) Name() string { return "log" }

// Notify 实现 Notifier 接口。
func (n *LogNotifier) Notify(_ context.Context, alert Alert) error {
	attrs := []any{
		slog.String("level", string(alert.Level)),
		slog.String("source", alert.Source),
	}
	if len(alert.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", alert.Metadata))
	}
	if alert.Level == LevelCritical {
		n.log.Error(alert.Message, attrs...)
	} else {
		n.log.Warn(alert.Message, attrs...)
	}
	return nil
}
