package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/pkg/logger"
)

// Execute 是动作子系统唯一的失败遏制边界：查找执行器、前置校验、
// 执行并归一化结果。无论执行器如何行为，本函数都不会向调用方
// 抛出 panic 或返回 error，所有失败都转化为 ok=false 的 Result。
func Execute(ctx context.Context, reg *Registry, act Action, ec ExecContext) Result {
	start := time.Now().UTC()
	if ec.Now.IsZero() {
		ec.Now = start
	}

	fail := func(code xerrors.Code, detail string) Result {
		if xerrors.ShouldAlert(code) {
			logger.L().Error("动作执行失败",
				slog.String("action_id", act.ID),
				slog.String("kind", string(act.Kind)),
				slog.String("code", string(code)),
				slog.String("detail", detail),
			)
		}
		return Result{
			OK:         false,
			ActionID:   act.ID,
			Kind:       act.Kind,
			Message:    detail,
			Error:      &ResultError{Code: code, Detail: detail},
			ExecutedAt: time.Now().UTC().Format(time.RFC3339),
		}
	}

	executor, ok := reg.Lookup(act.Kind)
	if !ok {
		return fail(xerrors.CodeNoExecutor, fmt.Sprintf("no executor registered for %s", act.Kind))
	}

	// 前置校验。校验失败时绝不触发 Execute，保证没有副作用。
	if validator, ok := executor.(Validator); ok {
		problem, crashed := runValidate(validator, act)
		if crashed != "" {
			return fail(xerrors.CodeValidationCrash, crashed)
		}
		if problem != "" {
			return fail(xerrors.CodeValidationError, problem)
		}
	}

	result, execErr, crashed := runExecute(ctx, executor, act, ec)
	if crashed != "" {
		return fail(xerrors.CodeExecutionCrash, crashed)
	}
	if execErr != nil {
		return fail(xerrors.CodeExecutionCrash, execErr.Error())
	}

	// 对不守约定的执行器做兜底归一化。
	if result.ActionID == "" {
		result.ActionID = act.ID
	}
	if result.Kind == "" {
		result.Kind = act.Kind
	}
	if result.ExecutedAt == "" {
		result.ExecutedAt = ec.NowISO()
	}
	logger.Audit().Info("动作执行完成",
		slog.String("action_id", result.ActionID),
		slog.String("kind", string(result.Kind)),
		slog.Bool("ok", result.OK),
	)
	return result
}

// runValidate 在隔离 panic 的前提下调用校验函数。
func runValidate(validator Validator, act Action) (problem, crashed string) {
	defer func() {
		if r := recover(); r != nil {
			crashed = fmt.Sprintf("validator panicked: %v", r)
		}
	}()
	problem = validator.Validate(act)
	return problem, ""
}

// runExecute 在隔离 panic 的前提下调用执行函数。
func runExecute(ctx context.Context, executor Executor, act Action, ec ExecContext) (result Result, execErr error, crashed string) {
	defer func() {
		if r := recover(); r != nil {
			crashed = fmt.Sprintf("executor panicked: %v", r)
		}
	}()
	result, execErr = executor.Execute(ctx, act, ec)
	return result, execErr, ""
}
