package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorOutput(t *testing.T) {
	c := NewCollector()
	c.ObserveHTTP("/api/v1/assistant", 200, 12*time.Millisecond)
	c.ObserveHTTP("/api/v1/assistant", 200, 8*time.Millisecond)
	c.ObserveHTTP("/api/v1/assistant", 405, time.Millisecond)
	c.ObserveAction("start_focus_block", "ok")
	c.ObserveAction("send_email", "NO_EXECUTOR")
	c.SetQueueDepth(3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	text := rec.Body.String()
	checks := []string{
		`amply_http_requests_total{path="/api/v1/assistant",status="200"} 2`,
		`amply_http_requests_total{path="/api/v1/assistant",status="405"} 1`,
		`amply_action_results_total{kind="start_focus_block",outcome="ok"} 1`,
		`amply_action_results_total{kind="send_email",outcome="NO_EXECUTOR"} 1`,
		`amply_queue_depth 3`,
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, text)
		}
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	c := NewCollector()
	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	out := httptest.NewRecorder()
	c.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(out.Body.String(), `amply_http_requests_total{path="/brew",status="418"} 1`) {
		t.Fatalf("middleware did not record the request:\n%s", out.Body.String())
	}
}
