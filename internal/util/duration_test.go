package util

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"4h", 4 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"1h30m", 90 * time.Minute, false},
		{"", 0, true},
		{"x", 0, true},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.Local)

	got, err := ParseClockTime("14:05", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 15, 14, 5, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseClockTime = %v, want %v", got, want)
	}

	// Past instants are returned as-is; the scheduler treats them as "now".
	got, err = ParseClockTime("09:00", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Before(now) {
		t.Error("expected past instant for 09:00")
	}

	for _, bad := range []string{"", "14", "25:00", "14:60", "aa:bb", "14:5x"} {
		if _, err := ParseClockTime(bad, now); err == nil {
			t.Errorf("ParseClockTime(%q): expected error", bad)
		}
	}
}
