package domain

import (
	"encoding/json"
	"testing"
)

func TestMetadataKeepsOrder(t *testing.T) {
	m := NewMetadata().Set("taskId", 5).Set("action", "update").Set("status", "Completed")
	m.Set("action", "progress")

	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"taskId":5,"action":"progress","status":"Completed"}` {
		t.Fatalf("unexpected encoding %s", raw)
	}

	back := ParseMetadata(raw)
	if back == nil {
		t.Fatal("expected metadata back")
	}
	keys := back.Keys()
	if len(keys) != 3 || keys[0] != "taskId" || keys[2] != "status" {
		t.Fatalf("order lost: %v", keys)
	}
	id, _ := back.Get("taskId")
	if id != json.Number("5") {
		t.Fatalf("expected number 5, got %#v", id)
	}
}

func TestParseMetadataCorrupt(t *testing.T) {
	for _, raw := range []string{"", "   ", "{not json", "[1,2]", `"text"`, `{"a":1`} {
		if got := ParseMetadata([]byte(raw)); got != nil {
			t.Errorf("ParseMetadata(%q) = %v, want nil", raw, got)
		}
	}
}

func TestMetadataMerge(t *testing.T) {
	base := NewMetadata().Set("taskId", 1).Set("action", "x")
	base.Merge(NewMetadata().Set("action", "update").Set("status", "Pending"))
	base.Merge(nil)

	if base.Len() != 3 {
		t.Fatalf("expected 3 keys, got %v", base.Keys())
	}
	if v, _ := base.Get("action"); v != "update" {
		t.Fatalf("expected merged value, got %v", v)
	}
}

func TestNilMetadataMarshalsNull(t *testing.T) {
	n := Notification{ID: 1}
	raw, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := decoded["metadata"]; !ok || v != nil {
		t.Fatalf("expected metadata null, got %v", v)
	}
}
