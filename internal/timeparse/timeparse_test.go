package timeparse

import (
	"math"
	"testing"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"4:33", 273},
		{"01:33.3", 93.3},
		{"-2:11:33", -7893},
		{"33 ms", 0.033},
		{"200ms", 0.2},
		{"1.5 s", 1.5},
		{"2 min", 120},
		{"1 h", 3600},
		{"42", 42},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", c.in, err)
			continue
		}
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"1:60.0",
		"71:33",
		"1:2:3:4",
		"abc",
		"10 xyz",
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) expected error, got none", c)
		}
	}
}
