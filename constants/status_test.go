package constants

import "testing"

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses {
		got, ok := ParseStatus(string(st))
		if !ok || got != st {
			t.Errorf("ParseStatus(%q) = %q, %v", st, got, ok)
		}
	}
	if _, ok := ParseStatus("pending"); ok {
		t.Error("ParseStatus is case sensitive by contract")
	}
	if _, ok := ParseStatus(""); ok {
		t.Error("ParseStatus accepted empty string")
	}
}
