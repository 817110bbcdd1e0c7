package httpmiddleware

import (
	"testing"
	"time"
)

func TestWindowLimiter(t *testing.T) {
	l := NewWindowLimiter(2, 50*time.Millisecond)

	if !l.allow("a") || !l.allow("a") {
		t.Fatal("first two requests must pass")
	}
	if l.allow("a") {
		t.Fatal("third request in window must be rejected")
	}
	if !l.allow("b") {
		t.Fatal("other keys are limited independently")
	}

	time.Sleep(60 * time.Millisecond)
	if !l.allow("a") {
		t.Fatal("window reset must allow again")
	}
}
