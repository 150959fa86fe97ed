package main

import (
	"testing"
	"time"
)

func TestRecordFind(t *testing.T) {
	rec := record{
		"id":     42,
		"source": "service",
		"parent": map[string]any{"child": "item"},
	}

	if v, ok := rec.find("source"); !ok || v != "service" {
		t.Errorf("find(source): got %v, %v", v, ok)
	}
	if v, ok := rec.find("parent", "child"); !ok || v != "item" {
		t.Errorf("find(parent, child): got %v, %v", v, ok)
	}
	if _, ok := rec.find("missing"); ok {
		t.Error("find(missing): expected not found")
	}
	if _, ok := rec.find("parent", "missing"); ok {
		t.Error("find(parent, missing): expected not found")
	}
	if _, ok := rec.find("source", "child"); ok {
		t.Error("find through scalar: expected not found")
	}
}

func TestRecordValid(t *testing.T) {
	if !(record{"message": "hi"}).valid() {
		t.Error("record with message should be valid")
	}
	if (record{"id": 42}).valid() {
		t.Error("record without message should be invalid")
	}
}

func TestStampTimestamp(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.UTC)

	rec := record{"message": "hi"}
	rec.stampTimestamp(now)
	ts, ok := rec["timestamp"].(string)
	if !ok {
		t.Fatalf("timestamp: got %T, want string", rec["timestamp"])
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t.Fatalf("timestamp %q does not parse: %v", ts, err)
	}
	if !parsed.Equal(now) {
		t.Errorf("timestamp: got %v, want %v", parsed, now)
	}

	// A producer-supplied timestamp wins over the receive time.
	rec = record{"message": "hi", "timestamp": "2020-01-01T00:00:00Z"}
	rec.stampTimestamp(now)
	if rec["timestamp"] != "2020-01-01T00:00:00Z" {
		t.Errorf("existing timestamp overwritten: got %v", rec["timestamp"])
	}
}
