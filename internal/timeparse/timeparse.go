// Package timeparse implements the time-literal grammar used by scene
// and transport commands:
//
//	[-]H:MM:SS[.frac]
//	[-]MM:SS[.frac]          (MM, SS in 0..59)
//	<number><unit>           unit in {h, min, s, ms}
//	<number>                 bare seconds
//
// Ground truth: original_source/apf/apf/stringtools.h (string2time).
package timeparse

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidTime is returned when a string doesn't match the grammar.
var ErrInvalidTime = errors.New("timeparse: invalid time literal")

// Parse converts a time literal to seconds.
func Parse(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	colons := strings.Count(trimmed, ":")

	switch colons {
	case 0:
		return parsePlain(trimmed)
	case 1:
		return parseClock(trimmed, false)
	case 2:
		return parseClock(trimmed, true)
	default:
		return 0, ErrInvalidTime
	}
}

// parsePlain handles "<number>", "<number><unit>" and
// "<number> <unit>" with unit in {h, min, s, ms}, with or without
// separating whitespace.
func parsePlain(s string) (float64, error) {
	s = strings.TrimSpace(s)

	cut := len(s)
	for cut > 0 && isUnitRune(s[cut-1]) {
		cut--
	}
	numberPart := strings.TrimSpace(s[:cut])
	unitPart := strings.TrimSpace(s[cut:])

	number, err := strconv.ParseFloat(numberPart, 64)
	if err != nil {
		return 0, ErrInvalidTime
	}

	switch unitPart {
	case "":
		return number, nil
	case "h":
		return number * 3600, nil
	case "min":
		return number * 60, nil
	case "s":
		return number, nil
	case "ms":
		return number / 1000, nil
	default:
		return 0, ErrInvalidTime
	}
}

func isUnitRune(b byte) bool {
	return b == 'h' || b == 'm' || b == 'i' || b == 'n' || b == 's'
}

// parseClock handles "[-]MM:SS[.frac]" (hasHours=false) and
// "[-]H:MM:SS[.frac]" (hasHours=true).
func parseClock(s string, hasHours bool) (float64, error) {
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	expected := 2
	if hasHours {
		expected = 3
	}
	if len(parts) != expected {
		return 0, ErrInvalidTime
	}

	var hours int64
	var err error
	idx := 0
	if hasHours {
		hours, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil || hours < 0 {
			return 0, ErrInvalidTime
		}
		idx = 1
	}

	minutes, err := strconv.ParseInt(parts[idx], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, ErrInvalidTime
	}

	secondsField := parts[idx+1]
	seconds, err := strconv.ParseFloat(secondsField, 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, ErrInvalidTime
	}

	total := float64(hours)*3600 + float64(minutes)*60 + seconds
	if negative {
		total = -total
	}
	return total, nil
}
