package util

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{90 * time.Second, "00:01:30.000"},
		{3723*time.Second + 500*time.Millisecond, "01:02:03.500"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFormatMs(t *testing.T) {
	if got := FormatMs(61500); got != "00:01:01.500" {
		t.Fatalf("FormatMs(61500) = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"45.5", 45*time.Second + 500*time.Millisecond},
		{"01:30", 90 * time.Second},
		{"1:02:03.5", 3723*time.Second + 500*time.Millisecond},
		{"  10  ", 10 * time.Second},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) errored: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "a:b", "1:2:3:4", "abc"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Fatalf("ParseTimestamp(%q) should fail", bad)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"24", 24},
		{"0/0", 0},
		{"junk", 0},
	}
	for _, tc := range cases {
		if got := ParseFrameRate(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ParseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFrameDurationMs(t *testing.T) {
	if got := FrameDurationMs(24); math.Abs(got-1000.0/24) > 1e-9 {
		t.Fatalf("FrameDurationMs(24) = %v", got)
	}
	if FrameDurationMs(0) != 0 || FrameDurationMs(-5) != 0 {
		t.Fatal("non-positive rates must yield 0")
	}
}
