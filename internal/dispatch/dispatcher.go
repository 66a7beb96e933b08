package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"AmplyBrain/internal/action"
	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/internal/observability/alerting"
	"AmplyBrain/pkg/logger"
)

// SubmitOutcome 描述一次动作提交的结局。
type SubmitOutcome struct {
	Queued bool   `json:"queued"`
	Reason string `json:"reason"`
}

// Dispatcher 是自动动作的总入口：信任判定放行、按动作 ID 去重、
// 入队后由单个 worker 顺序执行，任意时刻最多一个动作在飞。
type Dispatcher struct {
	registry *action.Registry
	queue    Queue
	alerts   *alerting.Dispatcher
	hook     func(action.Result)
	log      *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}

	startOnce sync.Once
	done      chan struct{}
}

// DispatcherOption 定义可选的派发器配置。
type DispatcherOption func(*Dispatcher)

// WithAlerts 配置告警分发器，执行崩溃类结果会被告警。
func WithAlerts(alerts *alerting.Dispatcher) DispatcherOption {
	return func(d *Dispatcher) {
		d.alerts = alerts
	}
}

// WithResultHook 配置结果回调，每个执行结果都会触发一次。
func WithResultHook(hook func(action.Result)) DispatcherOption {
	return func(d *Dispatcher) {
		d.hook = hook
	}
}

// NewDispatcher 创建派发器。
func NewDispatcher(registry *action.Registry, queue Queue, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		queue:    queue,
		seen:     make(map[string]struct{}),
		log:      logger.Named("dispatch"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Submit 对动作做信任判定，放行的动作去重后入队。confirm 动作不会
// 入队，由调用方交给用户确认。
func (d *Dispatcher) Submit(ctx context.Context, act action.Action) (SubmitOutcome, error) {
	decision := action.DecideTrust(act)
	if !decision.ShouldAutoRun {
		return SubmitOutcome{Queued: false, Reason: decision.Reason}, nil
	}
	if act.ID == "" {
		return SubmitOutcome{}, xerrors.New(xerrors.CodeInvalidArgument, "动作缺少 ID")
	}

	d.mu.Lock()
	if _, dup := d.seen[act.ID]; dup {
		d.mu.Unlock()
		return SubmitOutcome{Queued: false, Reason: "duplicate action id"}, nil
	}
	d.seen[act.ID] = struct{}{}
	d.mu.Unlock()

	if err := d.queue.Enqueue(ctx, act); err != nil {
		// 入队失败要把 ID 让出来，否则重试永远被去重挡掉。
		d.mu.Lock()
		delete(d.seen, act.ID)
		d.mu.Unlock()
		return SubmitOutcome{}, err
	}
	d.log.Info("动作已入队",
		slog.String("action", act.ID),
		slog.String("kind", string(act.Kind)),
		slog.String("reason", decision.Reason),
	)
	return SubmitOutcome{Queued: true, Reason: decision.Reason}, nil
}

// Start 启动后台 worker，重复调用无效果。worker 随 ctx 取消退出。
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go func() {
			defer close(d.done)
			err := d.queue.Consume(ctx, d.handle)
			if err != nil && ctx.Err() == nil {
				d.log.Error("队列消费退出", slog.Any("error", err))
			}
		}()
	})
}

// Wait 阻塞直到 worker 退出。
func (d *Dispatcher) Wait() {
	<-d.done
}

// handle 执行一条出队动作。执行层不抛异常，所有失败都落在 Result
// 里，worker 本身永不因单条动作失败而停转。
func (d *Dispatcher) handle(ctx context.Context, act action.Action) error {
	result := action.Execute(ctx, d.registry, act, action.ExecContext{})

	if !result.OK && result.Error != nil {
		code := result.Error.Code
		d.log.Warn("自动动作执行失败",
			slog.String("action", result.ActionID),
			slog.String("code", string(code)),
			slog.String("detail", result.Error.Detail),
		)
		if d.alerts != nil && xerrors.ShouldAlert(code) {
			d.alerts.Dispatch(ctx, alerting.Alert{
				Level:   alerting.LevelCritical,
				Source:  "dispatch",
				Message: "自动动作执行崩溃",
				Metadata: map[string]any{
					"actionId": result.ActionID,
					"kind":     string(result.Kind),
					"code":     string(code),
					"detail":   result.Error.Detail,
				},
			})
		}
	}

	if d.hook != nil {
		d.hook(result)
	}
	return nil
}
