package assistant

import (
	"testing"

	"AmplyBrain/internal/action"
)

func TestCoachFromPlanWithItems(t *testing.T) {
	output := RunEngine(EnginePlan, ModeStudent, "ship it")
	coached := CoachFromPlan(output)

	if len(coached.Steps) != 1 || coached.Steps[0].Priority != CoachNow {
		t.Fatalf("plan with items must yield a now step, got %+v", coached.Steps)
	}
	if coached.Steps[0].DurationMin != 25 {
		t.Fatalf("expected 25-min step, got %d", coached.Steps[0].DurationMin)
	}
	if len(coached.Actions) != 1 || coached.Actions[0].Kind != action.KindStartFocusBlock {
		t.Fatalf("expected a start_focus_block action, got %+v", coached.Actions)
	}
	if coached.Actions[0].Trust != action.TrustConfirm {
		t.Fatalf("coach focus action must require confirmation, got %s", coached.Actions[0].Trust)
	}
}

func TestCoachFromPlanWithoutItems(t *testing.T) {
	coached := CoachFromPlan(EngineOutput{OK: true, Engine: EnginePlan})
	if len(coached.Steps) != 1 || coached.Steps[0].Priority != CoachNext {
		t.Fatalf("empty plan must yield a next step, got %+v", coached.Steps)
	}
	if len(coached.Actions) != 0 {
		t.Fatalf("empty plan must yield no actions, got %+v", coached.Actions)
	}
}

func TestCoachFromWorkout(t *testing.T) {
	coached := CoachFromWorkout(EngineOutput{OK: true, Engine: EngineWorkout})
	if len(coached.Steps) != 1 || coached.Steps[0].Priority != CoachNow {
		t.Fatalf("workout must yield a now step, got %+v", coached.Steps)
	}
	if coached.Steps[0].Title != "Do the workout: Workout Session" {
		t.Fatalf("unexpected step title %q", coached.Steps[0].Title)
	}
	if coached.Steps[0].DurationMin != 45 {
		t.Fatalf("expected 45-min session, got %d", coached.Steps[0].DurationMin)
	}
	if len(coached.Actions) != 1 || coached.Actions[0].Kind != action.KindLogWorkout {
		t.Fatalf("expected a log_workout action, got %+v", coached.Actions)
	}
}

func TestCoachFromSummary(t *testing.T) {
	coached := CoachFromSummary(EngineOutput{OK: true, Engine: EngineSummary})
	if len(coached.Steps) != 1 || coached.Steps[0].Priority != CoachNext {
		t.Fatalf("summary must yield a next step, got %+v", coached.Steps)
	}
	if len(coached.Actions) != 1 {
		t.Fatalf("expected one action, got %d", len(coached.Actions))
	}
	act := coached.Actions[0]
	if act.Kind != action.KindOpenView || act.Trust != action.TrustAuto {
		t.Fatalf("summary must emit an auto open_view, got %+v", act)
	}
	payload := act.Payload.(action.OpenViewPayload)
	if payload.View != action.ViewPlan {
		t.Fatalf("expected plan view, got %s", payload.View)
	}
}

func TestCoachFromDirectWithSeeds(t *testing.T) {
	seeds := []action.Action{{ID: "s1", Kind: action.KindStartFocusBlock}}
	coached := CoachFromDirect(seeds)
	if len(coached.Steps) != 1 || coached.Steps[0].Priority != CoachNow {
		t.Fatalf("seeded direct path must yield a now step, got %+v", coached.Steps)
	}
	if len(coached.Actions) != 1 || coached.Actions[0].ID != "s1" {
		t.Fatalf("seed actions must pass through unchanged, got %+v", coached.Actions)
	}
}

func TestCoachFromDirectWithoutSeeds(t *testing.T) {
	coached := CoachFromDirect(nil)
	if len(coached.Steps) != 1 || coached.Steps[0].Priority != CoachNext {
		t.Fatalf("bare direct path must ask for clarification, got %+v", coached.Steps)
	}
	if len(coached.Actions) != 0 {
		t.Fatalf("expected no actions, got %+v", coached.Actions)
	}
}
