package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapPreservesCauseAndIsNilSafe(t *testing.T) {
	if Wrap(nil, ErrorTypeDatabase, SeverityCritical, "should be nil") != nil {
		t.Fatal("Wrap(nil, ...) should return nil")
	}

	cause := errors.New("connection refused")
	wrapped := Wrap(cause, ErrorTypeDatabase, SeverityCritical, "query failed")

	if wrapped.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", wrapped.Unwrap(), cause)
	}
	if wrapped.Error() != "query failed: connection refused" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestIsFatalOnlyForCriticalSeverity(t *testing.T) {
	if !IsFatal(ConfigError("missing token")) {
		t.Error("ConfigError should be fatal (SeverityCritical)")
	}
	if IsFatal(NotFoundError("profile missing")) {
		t.Error("NotFoundError should not be fatal (SeverityLow)")
	}
	if IsFatal(nil) {
		t.Error("IsFatal(nil) should be false")
	}
	if IsFatal(errors.New("plain error")) {
		t.Error("a plain non-*Error should never be reported fatal")
	}
}

func TestWithContextAccumulates(t *testing.T) {
	e := New(ErrorTypeValidation, SeverityHigh, "bad input").
		WithContext("field", "email").
		WithContext("value", "not-an-email")

	if e.Context["field"] != "email" || e.Context["value"] != "not-an-email" {
		t.Errorf("unexpected context: %+v", e.Context)
	}
}

func TestIsMatchesOnErrorType(t *testing.T) {
	a := ConfigError("a")
	b := ConfigErrorf("b: %d", 2)
	c := ValidationError("c")

	if !a.Is(b) {
		t.Error("two ConfigErrors should match under Is")
	}
	if a.Is(c) {
		t.Error("a ConfigError should not match a ValidationError under Is")
	}
}

func TestRateLimitErrorMarksContext(t *testing.T) {
	e := RateLimitError(errors.New("403"), "rate limited")
	if limited, _ := e.Context["rate_limited"].(bool); !limited {
		t.Error("expected rate_limited context flag set")
	}
	if IsFatal(e) {
		t.Error("a rate-limit error should not be fatal, caller should back off and retry")
	}
}

func TestDetailedStringIncludesCauseAndContext(t *testing.T) {
	e := Wrap(errors.New("disk full"), ErrorTypeFileSystem, SeverityHigh, "write failed").
		WithContext("path", "/var/log/talentgraph.log")

	out := e.DetailedString()
	if !containsAll(out, "write failed", "disk full", "path") {
		t.Errorf("DetailedString() missing expected fragments: %s", out)
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
