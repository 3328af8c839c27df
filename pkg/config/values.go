package config

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Size suffixes match in either case, time suffixes only in lowercase.
	sizePattern     = regexp.MustCompile(`(?i)^([0-9]+)([kmgt])$`)
	durationPattern = regexp.MustCompile(`^([0-9]+)([smhd])$`)

	leadingIntPattern   = regexp.MustCompile(`^[+-]?[0-9]+`)
	leadingFloatPattern = regexp.MustCompile(`^[+-]?[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`)
)

var sizeMultipliers = map[string]int64{
	"k": 1 << 10,
	"m": 1 << 20,
	"g": 1 << 30,
	"t": 1 << 40,
}

var durationMultipliers = map[string]float64{
	"s": 1,
	"m": 60,
	"h": 60 * 60,
	"d": 24 * 60 * 60,
}

// ParseSize converts "10k", "2M", "1g" or "1t" to bytes using powers of 1024.
// Anything else is read as a plain integer; non-numeric text yields 0.
// Sizes beyond the int64 range saturate at math.MaxInt64.
func ParseSize(text string) int64 {
	if m := sizePattern.FindStringSubmatch(text); m != nil {
		n := ParseInt(m[1])
		mult := sizeMultipliers[strings.ToLower(m[2])]
		if n > math.MaxInt64/mult {
			return math.MaxInt64
		}
		return n * mult
	}
	return ParseInt(text)
}

// ParseDuration converts "10s", "2m", "1h" or "1d" to seconds. Anything else
// is read as a floating-point number of seconds; non-numeric text yields 0.
func ParseDuration(text string) float64 {
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		return n * durationMultipliers[m[2]]
	}
	return ParseFloat(text)
}

// ParseBool recognizes "true"/"yes" and "false"/"no". ok is false for any
// other text, which callers must treat as neither true nor false.
func ParseBool(text string) (value bool, ok bool) {
	switch text {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	default:
		return false, false
	}
}

// ParseInt reads the leading integer of text, ignoring leading whitespace
// and anything after the digits. Text without one yields 0. Integers beyond
// the int64 range saturate at its bounds.
func ParseInt(text string) int64 {
	digits := leadingIntPattern.FindString(strings.TrimSpace(text))
	if digits == "" {
		return 0
	}
	// On ErrRange strconv returns the bound with the digits' sign.
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// ParseFloat reads the leading decimal number of text. Text without one
// yields 0.
func ParseFloat(text string) float64 {
	number := leadingFloatPattern.FindString(strings.TrimSpace(text))
	if number == "" {
		return 0
	}
	f, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0
	}
	return f
}

// Seconds converts a number of seconds as returned by ParseDuration to a
// time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
