package errors

import (
	stdErrors "errors"
	"testing"
)

func TestNewFallsBackToRegisteredMessage(t *testing.T) {
	err := New(CodeStorageFailure, "")
	if err.Message() != "storage failure" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.Code() != CodeStorageFailure {
		t.Fatalf("unexpected code %q", err.Code())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeQueueFailure, cause, "入队失败")

	if !stdErrors.Is(err, Wrap(CodeQueueFailure, nil, "")) {
		t.Fatal("errors with the same code must satisfy errors.Is")
	}
	if stdErrors.Unwrap(err) != cause {
		t.Fatal("cause must be reachable via Unwrap")
	}
	if CodeOf(err) != CodeQueueFailure {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(stdErrors.New("plain")) != CodeUnknown {
		t.Fatal("foreign errors must map to UNKNOWN")
	}
}

func TestShouldAlert(t *testing.T) {
	if !ShouldAlert(CodeExecutionCrash) {
		t.Fatal("execution crash must alert")
	}
	if !ShouldAlert(CodeValidationCrash) {
		t.Fatal("validation crash must alert")
	}
	if ShouldAlert(CodeValidationError) {
		t.Fatal("ordinary validation failures must not alert")
	}
	if ShouldAlert(CodeClientError) {
		t.Fatal("client errors must not alert")
	}
}

func TestSeverityOverride(t *testing.T) {
	err := New(CodeInvalidArgument, "bad input", WithSeverity(SeverityCritical))
	if err.Severity() != SeverityCritical {
		t.Fatalf("severity override lost, got %q", err.Severity())
	}
}

func TestMetadata(t *testing.T) {
	err := New(CodeNotFound, "缺失", WithMetadata("id", "x1"))
	meta := err.Metadata()
	if meta["id"] != "x1" {
		t.Fatalf("metadata lost: %v", meta)
	}
	meta["id"] = "mutated"
	if err.Metadata()["id"] != "x1" {
		t.Fatal("metadata must be cloned on read")
	}
}

func TestRegisterCustomCode(t *testing.T) {
	const code = Code("TEST_CUSTOM")
	Register(code, Attributes{Message: "custom", Severity: SeverityWarning, Alert: true})
	attr := AttributesOf(code)
	if attr.Message != "custom" || !attr.Alert {
		t.Fatalf("custom code not registered: %+v", attr)
	}
}
