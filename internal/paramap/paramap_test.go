package paramap

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	m := New()
	Set(m, "gain", 1.5)
	Set(m, "id", 3)
	Set(m, "mute", true)
	Set(m, "name", "s1")

	if v, err := Get[float64](m, "gain"); err != nil || v != 1.5 {
		t.Fatalf("gain = %v, %v", v, err)
	}
	if v, err := Get[int](m, "id"); err != nil || v != 3 {
		t.Fatalf("id = %v, %v", v, err)
	}
	if v, err := Get[bool](m, "mute"); err != nil || v != true {
		t.Fatalf("mute = %v, %v", v, err)
	}
	if v, err := Get[string](m, "name"); err != nil || v != "s1" {
		t.Fatalf("name = %v, %v", v, err)
	}
}

func TestMissingKeyErrors(t *testing.T) {
	m := New()
	if _, err := Get[int](m, "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestGetOrDefaultOnMissOrBadParse(t *testing.T) {
	m := New()
	if got := GetOr(m, "missing", 42); got != 42 {
		t.Fatalf("GetOr on missing key = %d, want 42", got)
	}
	m.SetString("bad", "not-a-number")
	if got := GetOr(m, "bad", 42); got != 42 {
		t.Fatalf("GetOr on unparsable value = %d, want 42", got)
	}
}
