package action

import (
	"context"
	"fmt"
)

// 本文件是第一方（内部）执行器：不依赖外部服务，信任策略允许时
// 可以安全地自动执行。外部执行器（日历、邮件、webhook）通过
// pkg/plugin 在启动阶段装载。

func success(act Action, ec ExecContext, message string, data any) Result {
	return Result{
		OK:         true,
		ActionID:   act.ID,
		Kind:       act.Kind,
		Message:    message,
		Data:       data,
		ExecutedAt: ec.NowISO(),
	}
}

// StartFocusBlockExecutor 逻辑上启动一个专注块。计时与通知由界面
// 侧驱动，这里只产出结构化数据。
type StartFocusBlockExecutor struct{}

// Kind 实现 Executor 接口。
func (StartFocusBlockExecutor) Kind() Kind { return KindStartFocusBlock }

// Validate 实现 Validator 接口。
func (StartFocusBlockExecutor) Validate(act Action) string {
	payload, ok := act.Payload.(FocusBlockPayload)
	if !ok {
		return fmt.Sprintf("unexpected payload for %s", act.Kind)
	}
	if payload.Title == "" {
		return "Focus block title is required"
	}
	if payload.DurationMin <= 0 {
		return "durationMin must be > 0"
	}
	return ""
}

// Execute 实现 Executor 接口。
func (StartFocusBlockExecutor) Execute(_ context.Context, act Action, ec ExecContext) (Result, error) {
	payload := act.Payload.(FocusBlockPayload)
	mode := payload.Mode
	if mode == "" {
		mode = FocusModePomodoro
	}
	return success(act, ec, "Focus block started", map[string]any{
		"title":       payload.Title,
		"durationMin": payload.DurationMin,
		"breakMin":    payload.BreakMin,
		"mode":        mode,
		"startedAt":   ec.NowISO(),
	}), nil
}

// CreateChecklistExecutor 产出结构化清单数据，供界面与记忆层使用。
type CreateChecklistExecutor struct{}

func (CreateChecklistExecutor) Kind() Kind { return KindCreateChecklist }

// Validate 的标题检查先于空清单检查。
func (CreateChecklistExecutor) Validate(act Action) string {
	payload, ok := act.Payload.(ChecklistPayload)
	if !ok {
		return fmt.Sprintf("unexpected payload for %s", act.Kind)
	}
	if payload.Title == "" {
		return "Checklist title is required"
	}
	if len(payload.Items) == 0 {
		return "Checklist must have at least one item"
	}
	return ""
}

func (CreateChecklistExecutor) Execute(_ context.Context, act Action, ec ExecContext) (Result, error) {
	payload := act.Payload.(ChecklistPayload)
	items := make([]map[string]any, 0, len(payload.Items))
	for idx, item := range payload.Items {
		items = append(items, map[string]any{
			"id":          fmt.Sprintf("item_%d", idx+1),
			"text":        item.Text,
			"done":        item.Done,
			"estimateMin": item.EstimateMin,
		})
	}
	return success(act, ec, "Checklist created", map[string]any{
		"title": payload.Title,
		"items": items,
	}), nil
}

// OpenViewExecutor 向界面发出导航信号，没有服务端副作用。
type OpenViewExecutor struct{}

func (OpenViewExecutor) Kind() Kind { return KindOpenView }

func (OpenViewExecutor) Validate(act Action) string {
	payload, ok := act.Payload.(OpenViewPayload)
	if !ok {
		return fmt.Sprintf("unexpected payload for %s", act.Kind)
	}
	if payload.View == "" {
		return "View is required"
	}
	return ""
}

func (OpenViewExecutor) Execute(_ context.Context, act Action, ec ExecContext) (Result, error) {
	payload := act.Payload.(OpenViewPayload)
	params := payload.Params
	if params == nil {
		params = map[string]string{}
	}
	return success(act, ec, "Navigation requested", map[string]any{
		"view":   payload.View,
		"params": params,
	}), nil
}

// LogWorkoutExecutor 记录一次训练。
type LogWorkoutExecutor struct{}

func (LogWorkoutExecutor) Kind() Kind { return KindLogWorkout }

func (LogWorkoutExecutor) Validate(act Action) string {
	payload, ok := act.Payload.(WorkoutLogPayload)
	if !ok {
		return fmt.Sprintf("unexpected payload for %s", act.Kind)
	}
	if payload.Title == "" {
		return "Workout title is required"
	}
	return ""
}

func (LogWorkoutExecutor) Execute(_ context.Context, act Action, ec ExecContext) (Result, error) {
	payload := act.Payload.(WorkoutLogPayload)
	return success(act, ec, "Workout logged", map[string]any{
		"workoutId":   payload.WorkoutID,
		"title":       payload.Title,
		"durationMin": payload.DurationMin,
		"rpe":         payload.RPE,
		"notes":       payload.Notes,
		"loggedAt":    ec.NowISO(),
	}), nil
}

// RegisterInternalExecutors 在启动阶段注册全部第一方执行器。
// 必须在服务开始处理请求之前调用且只调用一次。
func RegisterInternalExecutors(reg *Registry) {
	reg.RegisterAll(
		StartFocusBlockExecutor{},
		CreateChecklistExecutor{},
		OpenViewExecutor{},
		LogWorkoutExecutor{},
	)
}
