package account

import (
	"math"
	"testing"
)

func TestClampMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes float64
		want    int
		wantOK  bool
	}{
		{"normal report", 45, 45, true},
		{"fractional rounds", 12.6, 13, true},
		{"at cap", 180, 180, true},
		{"over cap clamped", 500, 180, true},
		{"just over cap", 180.6, 180, true},
		{"zero rejected", 0, 0, false},
		{"negative rejected", -5, 0, false},
		{"nan rejected", math.NaN(), 0, false},
		{"positive inf rejected", math.Inf(1), 0, false},
		{"negative inf rejected", math.Inf(-1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClampMinutes(tt.minutes)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("minutes = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUser_CanUseSTT(t *testing.T) {
	u := User{STTMinutesUsed: 99, STTMinutesLimit: 100}
	if !u.CanUseSTT() {
		t.Error("under limit should be allowed")
	}
	u.STTMinutesUsed = 100
	if u.CanUseSTT() {
		t.Error("at limit should be refused")
	}
	u.STTMinutesUsed = 150
	if u.CanUseSTT() {
		t.Error("over limit should be refused")
	}
}

func TestUser_IsActive(t *testing.T) {
	for _, status := range []string{StatusPending, StatusBanned, ""} {
		if (User{Status: status}).IsActive() {
			t.Errorf("status %q should not be active", status)
		}
	}
	if !(User{Status: StatusActive}).IsActive() {
		t.Error("active status should be active")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusActive, StatusBanned} {
		if !ValidStatus(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	if ValidStatus("suspended") {
		t.Error("unknown status should be invalid")
	}
}
