package models

import (
	"testing"
	"time"
)

func TestRunStatusTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusPending, false},
		{RunStatusRunning, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, expected %v", tt.status, got, tt.terminal)
		}
	}
}

func TestRunDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Run{StartedAt: start}
	if r.Duration() != 0 {
		t.Errorf("expected zero duration for unfinished run")
	}
	r.EndedAt = start.Add(3 * time.Second)
	if r.Duration() != 3*time.Second {
		t.Errorf("expected 3s, got %v", r.Duration())
	}
}

func TestRunCloneIsDeep(t *testing.T) {
	orig := &Run{
		ID:        "run-1",
		Args:      []string{"a.ind", "prefix=default"},
		Overrides: map[string]string{"Lta": "300"},
	}
	c := orig.Clone()
	c.Args[0] = "b.ind"
	c.Overrides["Lta"] = "400"

	if orig.Args[0] != "a.ind" {
		t.Errorf("clone shares Args with original")
	}
	if orig.Overrides["Lta"] != "300" {
		t.Errorf("clone shares Overrides with original")
	}
	if (*Run)(nil).Clone() != nil {
		t.Errorf("nil clone should be nil")
	}
}

func TestRoundCloneIsDeep(t *testing.T) {
	orig := &Round{Index: 1, Values: []float64{1, 2}, CompanionValues: []float64{1.55}}
	c := orig.Clone()
	c.Values[0] = 9
	if orig.Values[0] != 1 {
		t.Errorf("clone shares Values with original")
	}
}
