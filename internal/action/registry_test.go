package action

import (
	"context"
	"testing"
)

func TestRegistryOverwriteLastWins(t *testing.T) {
	reg := NewRegistry()
	first := &fakeExecutor{kind: KindOpenView, execute: func(_ context.Context, act Action, _ ExecContext) (Result, error) {
		return Result{OK: true, ActionID: act.ID, Kind: act.Kind, Message: "first"}, nil
	}}
	second := &fakeExecutor{kind: KindOpenView, execute: func(_ context.Context, act Action, _ ExecContext) (Result, error) {
		return Result{OK: true, ActionID: act.ID, Kind: act.Kind, Message: "second"}, nil
	}}
	reg.Register(first)
	reg.Register(second)

	result := Execute(context.Background(), reg, Action{ID: "r1", Kind: KindOpenView}, ExecContext{})
	if result.Message != "second" {
		t.Fatalf("last registration must win, got %q", result.Message)
	}

	kinds := reg.Kinds()
	count := 0
	for _, kind := range kinds {
		if kind == KindOpenView {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("kind should be listed exactly once, got %d in %v", count, kinds)
	}
}

func TestRegistryKindsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAll(
		&fakeExecutor{kind: KindSendEmail},
		&fakeExecutor{kind: KindCreateChecklist},
		&fakeExecutor{kind: KindOpenView},
	)
	kinds := reg.Kinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 kinds, got %v", kinds)
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Fatalf("kinds not sorted: %v", kinds)
		}
	}
}

func TestRegistryNilExecutorIgnored(t *testing.T) {
	reg := NewRegistry()
	reg.Register(nil)
	if len(reg.Kinds()) != 0 {
		t.Fatal("nil executor must be ignored")
	}
}
