package action

import (
	"context"
	"errors"
	"testing"
	"time"

	xerrors "AmplyBrain/internal/errors"
)

type fakeExecutor struct {
	kind     Kind
	validate func(Action) string
	execute  func(context.Context, Action, ExecContext) (Result, error)
	executed bool
}

func (f *fakeExecutor) Kind() Kind { return f.kind }

func (f *fakeExecutor) Validate(act Action) string {
	if f.validate == nil {
		return ""
	}
	return f.validate(act)
}

func (f *fakeExecutor) Execute(ctx context.Context, act Action, ec ExecContext) (Result, error) {
	f.executed = true
	if f.execute == nil {
		return Result{OK: true, ActionID: act.ID, Kind: act.Kind}, nil
	}
	return f.execute(ctx, act, ec)
}

func TestExecuteNoExecutor(t *testing.T) {
	reg := NewRegistry()
	act := Action{ID: "a1", Kind: KindSendEmail}

	result := Execute(context.Background(), reg, act, ExecContext{})
	if result.OK {
		t.Fatal("expected ok=false for unregistered kind")
	}
	if result.Error == nil || result.Error.Code != xerrors.CodeNoExecutor {
		t.Fatalf("expected NO_EXECUTOR, got %+v", result.Error)
	}
	if result.ActionID != "a1" || result.Kind != KindSendEmail {
		t.Fatalf("result not normalised: %+v", result)
	}
	if result.ExecutedAt == "" {
		t.Fatal("executedAt must always be set")
	}
}

func TestExecuteValidationError(t *testing.T) {
	reg := NewRegistry()
	exec := &fakeExecutor{
		kind:     KindCreateTask,
		validate: func(Action) string { return "Task title is required" },
	}
	reg.Register(exec)

	result := Execute(context.Background(), reg, Action{ID: "a2", Kind: KindCreateTask}, ExecContext{})
	if result.OK {
		t.Fatal("expected ok=false")
	}
	if result.Error == nil || result.Error.Code != xerrors.CodeValidationError {
		t.Fatalf("expected VALIDATION_ERROR, got %+v", result.Error)
	}
	if result.Message != "Task title is required" {
		t.Fatalf("message must equal validator output, got %q", result.Message)
	}
	if exec.executed {
		t.Fatal("execute must never run after a validation failure")
	}
}

func TestExecuteValidationCrash(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeExecutor{
		kind:     KindCreateTask,
		validate: func(Action) string { panic("boom") },
	})

	result := Execute(context.Background(), reg, Action{ID: "a3", Kind: KindCreateTask}, ExecContext{})
	if result.OK {
		t.Fatal("expected ok=false")
	}
	if result.Error == nil || result.Error.Code != xerrors.CodeValidationCrash {
		t.Fatalf("expected VALIDATION_CRASH, got %+v", result.Error)
	}
}

func TestExecuteExecutionCrash(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeExecutor{
		kind: KindCreateTask,
		execute: func(context.Context, Action, ExecContext) (Result, error) {
			panic("executor exploded")
		},
	})

	result := Execute(context.Background(), reg, Action{ID: "a4", Kind: KindCreateTask}, ExecContext{})
	if result.OK {
		t.Fatal("expected ok=false")
	}
	if result.Error == nil || result.Error.Code != xerrors.CodeExecutionCrash {
		t.Fatalf("expected EXECUTION_CRASH, got %+v", result.Error)
	}
}

func TestExecuteReturnedErrorBecomesCrash(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeExecutor{
		kind: KindCreateTask,
		execute: func(context.Context, Action, ExecContext) (Result, error) {
			return Result{}, errors.New("network down")
		},
	})

	result := Execute(context.Background(), reg, Action{ID: "a5", Kind: KindCreateTask}, ExecContext{})
	if result.OK {
		t.Fatal("expected ok=false")
	}
	if result.Error == nil || result.Error.Code != xerrors.CodeExecutionCrash {
		t.Fatalf("expected EXECUTION_CRASH, got %+v", result.Error)
	}
	if result.Error.Detail != "network down" {
		t.Fatalf("detail should carry the error text, got %q", result.Error.Detail)
	}
}

func TestExecuteTimestampNotBeforeStart(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeExecutor{kind: KindCreateTask})

	start := time.Now().UTC().Truncate(time.Second)
	result := Execute(context.Background(), reg, Action{ID: "a6", Kind: KindCreateTask}, ExecContext{})

	executedAt, err := time.Parse(time.RFC3339, result.ExecutedAt)
	if err != nil {
		t.Fatalf("executedAt is not a valid timestamp: %v", err)
	}
	if executedAt.Before(start) {
		t.Fatalf("executedAt %v is before call start %v", executedAt, start)
	}
}

func TestExecuteNormalisesSparseResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeExecutor{
		kind: KindCreateTask,
		execute: func(context.Context, Action, ExecContext) (Result, error) {
			// 不守约定的执行器：不回填 ID 与时间戳
			return Result{OK: true, Message: "done"}, nil
		},
	})

	result := Execute(context.Background(), reg, Action{ID: "a7", Kind: KindCreateTask}, ExecContext{})
	if !result.OK {
		t.Fatalf("expected ok=true, got %+v", result)
	}
	if result.ActionID != "a7" || result.Kind != KindCreateTask || result.ExecutedAt == "" {
		t.Fatalf("sparse result not normalised: %+v", result)
	}
}
