package session

import (
	"testing"
	"time"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSession_IsActive(t *testing.T) {
	ended := now.Add(-time.Minute)

	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"fresh heartbeat", Session{LastSeenAt: now.Add(-time.Second)}, true},
		{"just inside window", Session{LastSeenAt: now.Add(-Window + time.Second)}, true},
		{"exactly at window", Session{LastSeenAt: now.Add(-Window)}, false},
		{"stale", Session{LastSeenAt: now.Add(-time.Hour)}, false},
		{"ended", Session{LastSeenAt: now, EndedAt: &ended}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.IsActive(now); got != tt.want {
				t.Errorf("IsActive = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if Key("user-1", TypeSTT) != "user-1:stt" {
		t.Errorf("unexpected key %q", Key("user-1", TypeSTT))
	}
	if Key("user-1", TypeSTT) != Key("user-1", TypeSTT) {
		t.Error("key must be deterministic")
	}
}
