package main

import "strconv"

// Record is the benchmark payload. The drain frames messages purely from the
// encoding's own container headers, so the shape is fixed: four top-level
// fields in this exact order, one of them a single-field nested map.
type Record struct {
	ID      int    `msgpack:"id" json:"id"`
	Source  string `msgpack:"source" json:"source"`
	Parent  Parent `msgpack:"parent" json:"parent"`
	Message string `msgpack:"message" json:"message"`
}

// Parent exists to exercise nested-map handling on the drain side.
type Parent struct {
	Child string `msgpack:"child" json:"child"`
}

const (
	recordID      = 42
	childValue    = "item"
	defaultSource = "service"
	messagePrefix = "le message - "
)

// newRecord builds the i-th record of a run. Only the message text varies
// between iterations, which keeps per-record size stable for rate math.
func newRecord(source string, i uint64) Record {
	return Record{
		ID:      recordID,
		Source:  source,
		Parent:  Parent{Child: childValue},
		Message: messagePrefix + strconv.FormatUint(i, 10),
	}
}
