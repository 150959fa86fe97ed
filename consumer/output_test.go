package main

import (
	"errors"
	"sync"
	"testing"
)

// captureOutput records everything fed to it; shared by the runner and
// ingest tests.
type captureOutput struct {
	mu     sync.Mutex
	recs   []record
	closed bool
	failOn string // message value that should fail the feed
}

func (c *captureOutput) name() string { return "capture" }

func (c *captureOutput) feed(rec record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != "" && rec["message"] == c.failOn {
		return errors.New("induced feed failure")
	}
	c.recs = append(c.recs, rec)
	return nil
}

func (c *captureOutput) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureOutput) snapshot() []record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]record(nil), c.recs...)
}

func TestNewOutput(t *testing.T) {
	out, err := newOutput("null")
	if err != nil {
		t.Fatalf("newOutput(null): %v", err)
	}
	if out.name() != "null" {
		t.Errorf("name: got %q, want null", out.name())
	}
	if err := out.feed(record{"message": "hi"}); err != nil {
		t.Errorf("null feed: %v", err)
	}

	if _, err := newOutput("carrier-pigeon"); err == nil {
		t.Error("expected error for unknown output")
	}
}

func TestOutputRunnerDeliversInOrder(t *testing.T) {
	sink := &captureOutput{}
	r := startOutput(sink)
	for i := 0; i < 5; i++ {
		r.enqueue(record{"message": i})
	}
	r.stop()

	recs := sink.snapshot()
	if len(recs) != 5 {
		t.Fatalf("delivered %d records, want 5", len(recs))
	}
	for i, rec := range recs {
		if rec["message"] != i {
			t.Errorf("record %d: got %v", i, rec["message"])
		}
	}
	if !sink.closed {
		t.Error("output not closed after stop")
	}
}

func TestOutputRunnerSurvivesFeedErrors(t *testing.T) {
	sink := &captureOutput{failOn: "bad"}
	r := startOutput(sink)
	r.enqueue(record{"message": "first"})
	r.enqueue(record{"message": "bad"})
	r.enqueue(record{"message": "last"})
	r.stop()

	recs := sink.snapshot()
	if len(recs) != 2 {
		t.Fatalf("delivered %d records, want 2", len(recs))
	}
	if recs[0]["message"] != "first" || recs[1]["message"] != "last" {
		t.Errorf("unexpected records: %v", recs)
	}
}
