package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AmplyBrain/internal/action"
	"AmplyBrain/internal/assistant"
	"AmplyBrain/internal/calendar"
	xerrors "AmplyBrain/internal/errors"
	"AmplyBrain/internal/observability/metrics"
)

func newTestServer(opts ...ServerOption) *Server {
	registry := action.NewRegistry()
	action.RegisterInternalExecutors(registry)
	return NewServer(":0", assistant.New(), registry, opts...)
}

func TestHandleExecuteActionSuccess(t *testing.T) {
	server := newTestServer()
	body := `{
		"id": "a1",
		"kind": "start_focus_block",
		"label": "Focus",
		"payload": {"title": "Focus Block", "durationMin": 25}
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var result action.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected success, got %+v", result.Error)
	}
	if result.Message != "Focus block started" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestHandleExecuteActionBadBodyReturnsClientErrorEnvelope(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/execute", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	// 执行契约：传输层仍 200，失败在结果信封里
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with error envelope, got %d", rec.Code)
	}
	var result action.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.OK {
		t.Fatal("expected ok=false")
	}
	if result.Error == nil || result.Error.Code != xerrors.CodeClientError {
		t.Fatalf("expected CLIENT_ERROR, got %+v", result.Error)
	}
}

func TestHandleExecuteActionUnknownKind(t *testing.T) {
	server := newTestServer()
	body := `{"id": "a2", "kind": "teleport", "label": "go", "payload": {}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var result action.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.OK || result.Error == nil || result.Error.Code != xerrors.CodeNoExecutor {
		t.Fatalf("expected NO_EXECUTOR, got %+v", result)
	}
}

func TestHandleListExecutors(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/actions/executors", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var body struct {
		Kinds []action.Kind `json:"kinds"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Kinds) != 4 {
		t.Fatalf("expected 4 internal executors, got %v", body.Kinds)
	}
}

func TestHandleAssistant(t *testing.T) {
	server := newTestServer()
	body := `{"message": "plan my week", "mode": "student"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp assistant.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Assistant.Text != "Plan ready. Starting focus." {
		t.Fatalf("unexpected assistant text %q", resp.Assistant.Text)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Engine != assistant.EnginePlan {
		t.Fatalf("unexpected tool calls %+v", resp.ToolCalls)
	}
}

func TestHandleEngineRejectsUnknownEngine(t *testing.T) {
	server := newTestServer()
	body := `{"engine": "oracle", "mode": "student", "goal": "predict"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/engine", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var result action.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.OK || result.Error == nil || result.Error.Code != xerrors.CodeClientError {
		t.Fatalf("expected CLIENT_ERROR, got %+v", result)
	}
}

func TestHandleEngine(t *testing.T) {
	server := newTestServer()
	body := `{"engine": "workout", "mode": "student", "goal": "get stronger"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/engine", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var output assistant.EngineOutput
	if err := json.NewDecoder(rec.Body).Decode(&output); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !output.OK || output.Engine != assistant.EngineWorkout {
		t.Fatalf("unexpected output %+v", output)
	}
	if len(output.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(output.Items))
	}
}

func TestHandleReminderScan(t *testing.T) {
	store := calendar.NewMemoryStore()
	scanner := calendar.NewScanner(store, 0)
	server := newTestServer(WithScanner(scanner))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/reminders/run", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var result calendar.ScanResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Ran != 0 {
		t.Fatalf("empty store should scan nothing, got %+v", result)
	}
}

func TestHandleReminderScanDisabled(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/reminders/run", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when scanner missing, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector()
	server := newTestServer(WithMetrics(collector))

	// 先制造一次请求让计数器有内容
	healthReq := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.Handler().ServeHTTP(httptest.NewRecorder(), healthReq)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	text := rec.Body.String()
	if !strings.Contains(text, "amply_http_requests_total") {
		t.Fatalf("metrics output missing counters: %s", text)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assistant", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestWithContextRejectsAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := withContext(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after shutdown, got %d", rec.Code)
	}
}
