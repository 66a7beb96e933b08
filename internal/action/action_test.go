package action

import (
	"encoding/json"
	"testing"
)

func TestActionUnmarshalDispatchesPayloadByKind(t *testing.T) {
	raw := `{
		"id": "act_1",
		"kind": "start_focus_block",
		"trust": "auto",
		"label": "Start 45-min focus",
		"payload": {"title": "Focus Block", "durationMin": 45, "breakMin": 5, "mode": "pomodoro"}
	}`

	var act Action
	if err := json.Unmarshal([]byte(raw), &act); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	payload, ok := act.Payload.(FocusBlockPayload)
	if !ok {
		t.Fatalf("expected FocusBlockPayload, got %T", act.Payload)
	}
	if payload.DurationMin != 45 || payload.Title != "Focus Block" {
		t.Fatalf("payload fields lost: %+v", payload)
	}
}

func TestActionUnmarshalUnknownKindKeepsGenericPayload(t *testing.T) {
	raw := `{"id": "act_2", "kind": "teleport", "label": "beam me up", "payload": {"target": "mars"}}`

	var act Action
	if err := json.Unmarshal([]byte(raw), &act); err != nil {
		t.Fatalf("unknown kind must not fail decoding: %v", err)
	}
	payload, ok := act.Payload.(GenericPayload)
	if !ok {
		t.Fatalf("expected GenericPayload, got %T", act.Payload)
	}
	if payload["target"] != "mars" {
		t.Fatalf("generic payload fields lost: %v", payload)
	}
}

func TestActionUnmarshalMissingPayload(t *testing.T) {
	raw := `{"id": "act_3", "kind": "open_view", "label": "go"}`

	var act Action
	if err := json.Unmarshal([]byte(raw), &act); err != nil {
		t.Fatalf("missing payload should decode to zero value: %v", err)
	}
	if _, ok := act.Payload.(OpenViewPayload); !ok {
		t.Fatalf("expected OpenViewPayload, got %T", act.Payload)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID("act")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsValidKind(t *testing.T) {
	if !IsValidKind(KindSendEmail) {
		t.Fatal("send_email is part of the closed set")
	}
	if IsValidKind(Kind("teleport")) {
		t.Fatal("unknown kind must not validate")
	}
}
