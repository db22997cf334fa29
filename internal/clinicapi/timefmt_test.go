package clinicapi

import (
	"testing"
	"time"
)

func TestParseWire(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  time.Time
		isErr bool
	}{
		{"lowercase meridiem", "2025/06/10 & 2:00 pm", time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), false},
		{"uppercase meridiem", "2025/06/10 & 2:00 PM", time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), false},
		{"morning", "2025/06/10 & 11:00 am", time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC), false},
		{"midnight hour", "2025/12/31 & 11:00 PM", time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), false},
		{"padded whitespace", "  2025/06/10 & 2:00 pm ", time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC), false},
		{"garbage", "not a timestamp", time.Time{}, true},
		{"empty", "", time.Time{}, true},
		{"wrong separator", "2025-06-10 14:00", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWire(tt.in)
			if tt.isErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWire(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseWire(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatWireRoundTrip(t *testing.T) {
	in := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	s := FormatWire(in)
	if s != "2025/06/10 & 2:00 PM" {
		t.Fatalf("unexpected wire format: %q", s)
	}
	back, err := ParseWire(s)
	if err != nil {
		t.Fatalf("ParseWire: %v", err)
	}
	if !back.Equal(in) {
		t.Fatalf("round trip mismatch: %v != %v", back, in)
	}
}
