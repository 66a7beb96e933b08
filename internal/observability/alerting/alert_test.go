package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type captureNotifier struct {
	mu     sync.Mutex
	name   string
	alerts []Alert
	fail   bool
}

func (c *captureNotifier) Name() string { return c.name }

func (c *captureNotifier) Notify(_ context.Context, alert Alert) error {
	if c.fail {
		return errors.New("channel down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

func TestDispatchFansOutToAllNotifiers(t *testing.T) {
	a := &captureNotifier{name: "a"}
	b := &captureNotifier{name: "b"}
	d := NewDispatcher(a, b)

	d.Dispatch(context.Background(), Alert{Level: LevelCritical, Source: "test", Message: "boom"})

	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("alert not fanned out: a=%d b=%d", a.count(), b.count())
	}
}

func TestDispatchContinuesPastFailingNotifier(t *testing.T) {
	bad := &captureNotifier{name: "bad", fail: true}
	good := &captureNotifier{name: "good"}
	d := NewDispatcher(bad, good)

	d.Dispatch(context.Background(), Alert{Level: LevelWarning, Source: "test", Message: "degraded"})

	if good.count() != 1 {
		t.Fatal("failing notifier must not block the others")
	}
}

func TestDispatchStampsCreatedAt(t *testing.T) {
	capture := &captureNotifier{name: "c"}
	d := NewDispatcher(capture)

	d.Dispatch(context.Background(), Alert{Level: LevelWarning, Source: "test", Message: "x"})

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.alerts[0].CreatedAt.IsZero() {
		t.Fatal("createdAt must be stamped when missing")
	}
}

func TestRegisterAddsNotifier(t *testing.T) {
	d := NewDispatcher()
	capture := &captureNotifier{name: "late"}
	d.Register(capture)

	d.Dispatch(context.Background(), Alert{Level: LevelCritical, Source: "test", Message: "y"})
	if capture.count() != 1 {
		t.Fatal("registered notifier must receive alerts")
	}
}
