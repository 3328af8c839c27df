package config

import (
	"math"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10k", 10240},
		{"10K", 10240},
		{"2m", 2097152},
		{"2M", 2097152},
		{"1g", 1 << 30},
		{"3t", 3 << 40},
		{"5", 5},
		{"", 0},
		{"abc", 0},
		{"12x", 12},
		{"10kb", 10},
		{"8388607t", 8388607 << 40},
		{"8388608t", math.MaxInt64},
		{"99999999999t", math.MaxInt64},
		{"99999999999999999999k", math.MaxInt64},
		{"99999999999999999999", math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseSize(tt.in); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10s", 10},
		{"2m", 120},
		{"1h", 3600},
		{"1d", 86400},
		{"1.5", 1.5},
		{"30", 30},
		{"10S", 10}, // uppercase suffixes are not recognized; the number is read
		{"soon", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDuration(tt.in); got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"yes", true, true},
		{"false", false, true},
		{"no", false, true},
		{"maybe", false, false},
		{"TRUE", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseBool(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseBool(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := map[string]int64{
		"9999":                  9999,
		" 42 ":                  42,
		"-7":                    -7,
		"12abc":                 12,
		"abc":                   0,
		"3.9":                   3,
		"+15min":                15,
		"99999999999999999999":  math.MaxInt64,
		"-99999999999999999999": math.MinInt64,
	}

	for in, want := range tests {
		if got := ParseInt(in); got != want {
			t.Errorf("ParseInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(1.5); got != 1500*time.Millisecond {
		t.Errorf("Seconds(1.5) = %v, want 1.5s", got)
	}
	if got := Seconds(ParseDuration("2m")); got != 2*time.Minute {
		t.Errorf("Seconds(2m) = %v, want 2m", got)
	}
}
