package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"AmplyBrain/internal/action"
)

type recordingExecutor struct {
	mu       sync.Mutex
	kind     action.Kind
	inFlight int
	maxSeen  int
	executed []string
}

func (r *recordingExecutor) Kind() action.Kind { return r.kind }

func (r *recordingExecutor) Execute(_ context.Context, act action.Action, ec action.ExecContext) (action.Result, error) {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxSeen {
		r.maxSeen = r.inFlight
	}
	r.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	r.mu.Lock()
	r.inFlight--
	r.executed = append(r.executed, act.ID)
	r.mu.Unlock()
	return action.Result{OK: true, ActionID: act.ID, Kind: act.Kind, ExecutedAt: ec.NowISO()}, nil
}

func (r *recordingExecutor) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.executed))
	copy(out, r.executed)
	return r.maxSeen, out
}

func TestSubmitRejectsConfirmActions(t *testing.T) {
	reg := action.NewRegistry()
	queue := NewMemoryQueue(8)
	defer queue.Close()
	d := NewDispatcher(reg, queue)

	outcome, err := d.Submit(context.Background(), action.Action{
		ID:    "c1",
		Kind:  action.KindSendEmail,
		Trust: action.TrustConfirm,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Queued {
		t.Fatal("confirm action must not be queued")
	}
	if outcome.Reason != "explicit confirm" {
		t.Fatalf("unexpected reason %q", outcome.Reason)
	}
}

func TestSubmitRejectsUnsafeKindWithoutTrust(t *testing.T) {
	reg := action.NewRegistry()
	queue := NewMemoryQueue(8)
	defer queue.Close()
	d := NewDispatcher(reg, queue)

	outcome, err := d.Submit(context.Background(), action.Action{ID: "c2", Kind: action.KindSendEmail})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Queued {
		t.Fatal("unsafe kind must not auto-run without explicit trust")
	}
	if outcome.Reason != "not in safe allowlist" {
		t.Fatalf("unexpected reason %q", outcome.Reason)
	}
}

func TestSubmitDeduplicatesByActionID(t *testing.T) {
	reg := action.NewRegistry()
	queue := NewMemoryQueue(8)
	defer queue.Close()
	d := NewDispatcher(reg, queue)

	act := action.Action{ID: "dup", Kind: action.KindOpenView, Trust: action.TrustAuto}
	first, err := d.Submit(context.Background(), act)
	if err != nil || !first.Queued {
		t.Fatalf("first submit should queue, got %+v err=%v", first, err)
	}
	second, err := d.Submit(context.Background(), act)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Queued {
		t.Fatal("same action id must never be queued twice")
	}
	if second.Reason != "duplicate action id" {
		t.Fatalf("unexpected reason %q", second.Reason)
	}
}

func TestDispatcherSequentialExecution(t *testing.T) {
	exec := &recordingExecutor{kind: action.KindOpenView}
	reg := action.NewRegistry()
	reg.Register(exec)

	done := make(chan action.Result, 3)
	d := NewDispatcher(reg, NewMemoryQueue(16), WithResultHook(func(r action.Result) { done <- r }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, id := range []string{"s1", "s2", "s3"} {
		outcome, err := d.Submit(ctx, action.Action{ID: id, Kind: action.KindOpenView, Trust: action.TrustAuto})
		if err != nil || !outcome.Queued {
			t.Fatalf("submit %s: %+v err=%v", id, outcome, err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case result := <-done:
			if !result.OK {
				t.Fatalf("execution failed: %+v", result)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for executions")
		}
	}

	maxSeen, executed := exec.snapshot()
	if maxSeen > 1 {
		t.Fatalf("at most one action may be in flight, saw %d", maxSeen)
	}
	if len(executed) != 3 || executed[0] != "s1" || executed[1] != "s2" || executed[2] != "s3" {
		t.Fatalf("actions must execute in submission order, got %v", executed)
	}
}

func TestDispatcherSurvivesFailingResults(t *testing.T) {
	// 未注册的 kind 导致 NO_EXECUTOR 结果，但 worker 不能停转
	reg := action.NewRegistry()
	exec := &recordingExecutor{kind: action.KindOpenView}
	reg.Register(exec)

	queue := NewMemoryQueue(8)
	done := make(chan action.Result, 2)
	d := NewDispatcher(reg, queue, WithResultHook(func(r action.Result) { done <- r }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Submit(ctx, action.Action{ID: "bad", Kind: action.KindRunAutomation, Trust: action.TrustAuto})
	d.Submit(ctx, action.Action{ID: "good", Kind: action.KindOpenView, Trust: action.TrustAuto})

	var results []action.Result
	for i := 0; i < 2; i++ {
		select {
		case r := <-done:
			results = append(results, r)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for results")
		}
	}
	if results[0].OK {
		t.Fatalf("first action should fail with NO_EXECUTOR, got %+v", results[0])
	}
	if !results[1].OK || results[1].ActionID != "good" {
		t.Fatalf("worker must continue after a failed result, got %+v", results[1])
	}
}

func TestMemoryQueueClosedEnqueue(t *testing.T) {
	queue := NewMemoryQueue(1)
	queue.Close()
	if err := queue.Enqueue(context.Background(), action.Action{ID: "x"}); err == nil {
		t.Fatal("enqueue after close must fail")
	}
}
