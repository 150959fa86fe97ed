package main

import "time"

// record is one decoded wire message. The drain treats payloads as open maps
// rather than a fixed struct: outputs address fields by path, and producers
// are free to send richer shapes than the benchmark schema.
type record map[string]any

// find walks nested maps along path and returns the value at its end.
func (r record) find(path ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// valid reports whether the record carries the one field every consumer of
// the drain relies on.
func (r record) valid() bool {
	_, ok := r["message"]
	return ok
}

// stampTimestamp adds the receive time when the producer did not send one.
func (r record) stampTimestamp(now time.Time) {
	if _, ok := r["timestamp"]; !ok {
		r["timestamp"] = now.Format(time.RFC3339Nano)
	}
}
