package status

import (
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 seconds"},
		{500 * time.Millisecond, "0 seconds"},
		{42 * time.Second, "42 seconds"},
		{90 * time.Minute, "1 hours, 30 minutes"},
		{25*time.Hour + 61*time.Second, "1 days, 1 hours, 1 minutes, 1 seconds"},
		{48 * time.Hour, "2 days"},
		{-5 * time.Second, "0 seconds"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStoreSnapshot(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &Store{now: func() time.Time { return current }}
	s.startedAt = current

	snap := s.Snapshot()
	if snap.Status != "healthy" {
		t.Fatalf("expected status healthy, got %q", snap.Status)
	}
	if snap.Uptime != "0 seconds" {
		t.Fatalf("unexpected uptime %q", snap.Uptime)
	}
	if snap.LastIndexed != "" {
		t.Fatalf("expected empty lastIndexed before any ingest, got %q", snap.LastIndexed)
	}

	current = current.Add(3*time.Hour + 15*time.Minute)
	s.MarkIndexed()
	current = current.Add(10 * time.Second)

	snap = s.Snapshot()
	if snap.Uptime != "3 hours, 15 minutes, 10 seconds" {
		t.Fatalf("unexpected uptime %q", snap.Uptime)
	}
	if snap.LastIndexed != "2025-03-01T15:15:00Z" {
		t.Fatalf("unexpected lastIndexed %q", snap.LastIndexed)
	}
}
