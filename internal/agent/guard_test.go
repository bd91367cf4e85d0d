package agent

import (
	"testing"
	"time"
)

func TestGuardDisablesAfterMaxFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewGuard(2, 10*time.Second)
	g.now = func() time.Time { return now }

	if !g.Allow() {
		t.Fatal("expected allow initially")
	}
	g.RecordFailure()
	if !g.Allow() {
		t.Fatal("expected allow after first failure")
	}
	g.RecordFailure()
	if g.Allow() {
		t.Fatal("expected disabled after max failures")
	}

	now = now.Add(11 * time.Second)
	if !g.Allow() {
		t.Fatal("expected allow after cooldown")
	}

	g.RecordSuccess()
	if g.Failures() != 0 {
		t.Fatalf("expected failures reset, got %d", g.Failures())
	}
}

func TestGuardNilAndDisabled(t *testing.T) {
	var g *Guard
	g.RecordFailure()
	g.RecordSuccess()
	if !g.Allow() {
		t.Fatal("nil guard should allow")
	}

	off := NewGuard(0, time.Minute)
	for i := 0; i < 10; i++ {
		off.RecordFailure()
	}
	if !off.Allow() {
		t.Fatal("guard with zero max failures should never trip")
	}
}
