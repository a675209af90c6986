package storage

import "testing"

func TestParseHistoryMember(t *testing.T) {
	got, err := parseHistoryMember("1760529600:9.85")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9.85 {
		t.Errorf("parallel: got %v, want 9.85", got)
	}

	if _, err := parseHistoryMember("garbage"); err == nil {
		t.Error("expected error for malformed entry")
	}
}
