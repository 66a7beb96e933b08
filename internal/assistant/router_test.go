package assistant

import (
	"testing"

	"AmplyBrain/internal/action"
)

func TestRouteEmptyMessage(t *testing.T) {
	decision := RouteUserMessage("   ")
	if decision.Engine != EngineNone {
		t.Fatalf("expected engine none, got %s", decision.Engine)
	}
	if decision.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", decision.Confidence)
	}
	if decision.DirectText == "" {
		t.Fatal("empty input must produce a direct nudge")
	}
}

func TestRouteStudyForMinutes(t *testing.T) {
	decision := RouteUserMessage("study for 45 minutes")
	if decision.Engine != EnginePlan {
		t.Fatalf("expected engine plan, got %s", decision.Engine)
	}
	if len(decision.SeedActions) != 1 {
		t.Fatalf("expected one seed action, got %d", len(decision.SeedActions))
	}
	seed := decision.SeedActions[0]
	if seed.Kind != action.KindStartFocusBlock {
		t.Fatalf("unexpected seed kind %s", seed.Kind)
	}
	if seed.Trust != action.TrustConfirm {
		t.Fatalf("seed action must require confirmation, got %s", seed.Trust)
	}
	payload, ok := seed.Payload.(action.FocusBlockPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", seed.Payload)
	}
	if payload.DurationMin != 45 {
		t.Fatalf("expected 45 minutes, got %d", payload.DurationMin)
	}
	if !decision.HasTag("focus") {
		t.Fatalf("expected focus tag, got %v", decision.Tags)
	}
}

func TestRouteFocusWithoutPlanKeywordsStaysNone(t *testing.T) {
	decision := RouteUserMessage("lock in for deep work")
	if decision.Engine != EngineNone {
		t.Fatalf("focus without plan keywords should not pick an engine, got %s", decision.Engine)
	}
	if len(decision.SeedActions) != 1 {
		t.Fatalf("expected a seed action, got %d", len(decision.SeedActions))
	}
}

func TestRouteWorkout(t *testing.T) {
	decision := RouteUserMessage("bench press 5x5 today")
	if decision.Engine != EngineWorkout {
		t.Fatalf("expected engine workout, got %s", decision.Engine)
	}
	if decision.Confidence != ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", decision.Confidence)
	}
}

func TestRouteSummaryBeforeWorkout(t *testing.T) {
	// summary 关键词先于 workout 求值
	decision := RouteUserMessage("recap my gym week")
	if decision.Engine != EngineSummary {
		t.Fatalf("expected engine summary, got %s", decision.Engine)
	}
}

func TestRoutePlan(t *testing.T) {
	decision := RouteUserMessage("build a roadmap for the quarter")
	if decision.Engine != EnginePlan {
		t.Fatalf("expected engine plan, got %s", decision.Engine)
	}
}

func TestRouteFallback(t *testing.T) {
	decision := RouteUserMessage("how are you doing")
	if decision.Engine != EngineNone {
		t.Fatalf("expected engine none, got %s", decision.Engine)
	}
	if decision.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %s", decision.Confidence)
	}
	if !decision.HasTag("fallback") {
		t.Fatalf("expected fallback tag, got %v", decision.Tags)
	}
	if decision.DirectText == "" {
		t.Fatal("fallback must carry a capability nudge")
	}
}

func TestRouteDeterministic(t *testing.T) {
	a := RouteUserMessage("pomodoro 30 min")
	b := RouteUserMessage("pomodoro 30 min")
	if a.Engine != b.Engine || len(a.SeedActions) != len(b.SeedActions) {
		t.Fatal("routing must be deterministic for the same input")
	}
	pa := a.SeedActions[0].Payload.(action.FocusBlockPayload)
	pb := b.SeedActions[0].Payload.(action.FocusBlockPayload)
	if pa.DurationMin != 30 || pa.DurationMin != pb.DurationMin {
		t.Fatalf("duration parse not stable: %d vs %d", pa.DurationMin, pb.DurationMin)
	}
}

func TestParseSeedDurationDefaultsAndUnbounded(t *testing.T) {
	if d := parseSeedDuration("focus please"); d != 25 {
		t.Fatalf("expected default 25, got %d", d)
	}
	// 路由层不设上限，收紧发生在自动执行路径
	if d := parseSeedDuration("focus 500 min"); d != 500 {
		t.Fatalf("expected unclamped 500, got %d", d)
	}
}
