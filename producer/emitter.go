package main

import (
	"fmt"
	"io"
	"time"
)

// Emitter pushes a fixed number of encoded records onto a stream, strictly
// one at a time over a single connection. The first write error aborts the
// run; bytes already on the wire stay there.
type Emitter struct {
	w        io.Writer
	enc      recordEncoder
	source   string
	encoding string
	id       string

	sentMessages uint64
	sentBytes    uint64
}

func newEmitter(w io.Writer, encoding Encoding, source, producerID string) *Emitter {
	return &Emitter{
		w:        w,
		enc:      encoding.newEncoder(),
		source:   source,
		encoding: encoding.String(),
		id:       producerID,
	}
}

// Run performs exactly count compose/encode/write cycles. Zero is a valid
// count: the stream is left untouched and Run returns nil.
func (e *Emitter) Run(count uint64) error {
	for i := uint64(0); i < count; i++ {
		rec := newRecord(e.source, i)
		data, err := e.enc.encode(&rec)
		if err != nil {
			return fmt.Errorf("encode message %d: %w", i, err)
		}

		start := time.Now()
		if err := writeFull(e.w, data); err != nil {
			writeErrors.WithLabelValues(e.encoding, e.id).Inc()
			return fmt.Errorf("write message %d: %w", i, err)
		}
		writeLatency.WithLabelValues(e.encoding, e.id).Observe(time.Since(start).Seconds())

		messagesEmitted.WithLabelValues(e.encoding, e.id).Inc()
		bytesEmitted.WithLabelValues(e.encoding, e.id).Add(float64(len(data)))
		e.sentMessages++
		e.sentBytes += uint64(len(data))
	}
	return nil
}

// writeFull pushes the whole buffer through w, looping over writers that
// report partial progress without an error. A zero-progress write without
// an error would loop forever, so it is surfaced as io.ErrShortWrite.
func writeFull(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		buf = buf[n:]
	}
	return nil
}
