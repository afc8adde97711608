package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"Pending", " In Progress ", "Completed"} {
		if _, err := ParseStatus(raw); err != nil {
			t.Errorf("ParseStatus(%q): %v", raw, err)
		}
	}
	for _, raw := range []string{"", "pending", "Done"} {
		if _, err := ParseStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) = %v, want ErrInvalidStatus", raw, err)
		}
	}
}

func TestNormalizeAccessLevel(t *testing.T) {
	cases := map[string]AccessLevel{
		"full":    AccessFull,
		"FULL":    AccessFull,
		"Limited": AccessLimited,
		"":        AccessLimited,
		"owner":   AccessLimited,
		"admin":   AccessLimited,
	}
	for raw, want := range cases {
		if got := NormalizeAccessLevel(raw); got != want {
			t.Errorf("NormalizeAccessLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestTaskPatchPresence(t *testing.T) {
	var p TaskPatch
	if err := json.Unmarshal([]byte(`{"description":null,"status":"Completed"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Title.Present {
		t.Error("title should be absent")
	}
	if !p.Description.Present || p.Description.Value != nil {
		t.Errorf("description should be present and null, got %+v", p.Description)
	}
	if !p.Status.Present || p.Status.Value != "Completed" {
		t.Errorf("unexpected status %+v", p.Status)
	}
	if p.DueDate.Present {
		t.Error("due date should be absent")
	}
}

func TestParseDueDate(t *testing.T) {
	if d, err := ParseDueDate(""); err != nil || d != nil {
		t.Fatalf("empty should be nil, got %v %v", d, err)
	}
	d, err := ParseDueDate("2030-04-05")
	if err != nil || d.Day() != 5 {
		t.Fatalf("date only: %v %v", d, err)
	}
	if _, err := ParseDueDate("2030-04-05T10:00:00Z"); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if _, err := ParseDueDate("5 April"); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
