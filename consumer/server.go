package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// drain accepts producer connections and fans decoded records out to the
// configured outputs. Each connection is served by its own goroutine; each
// output consumes from its own queue, so one slow sink only backpressures
// ingest once its queue fills.
type drain struct {
	codec   codec
	outputs []*outputRunner
	drainID string
}

func (d *drain) run(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	log.Printf("drain %s: listening on %s (%s)", d.drainID, ln.Addr(), d.codec.name())

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			log.Printf("drain: accept: %v", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.serve(ctx, conn)
		}()
	}

	wg.Wait()
	return nil
}

func (d *drain) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	// Closing the conn is the only way to unblock a decoder mid-read.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	activeConnections.WithLabelValues(d.drainID).Inc()
	defer activeConnections.WithLabelValues(d.drainID).Dec()
	log.Printf("drain: connection from %s", conn.RemoteAddr())

	codecName := d.codec.name()
	dec := d.codec.newDecoder(&meteredReader{r: conn, codec: codecName, drainID: d.drainID})
	for {
		rec, err := dec.decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("drain: decode from %s: %v", conn.RemoteAddr(), err)
			decodeErrors.WithLabelValues(codecName, d.drainID).Inc()
			break
		}

		recordsReceived.WithLabelValues(codecName, d.drainID).Inc()
		if !rec.valid() {
			log.Printf("drain: dropping record from %s: message field required", conn.RemoteAddr())
			recordsDropped.WithLabelValues(codecName, d.drainID).Inc()
			continue
		}
		rec.stampTimestamp(time.Now())

		for _, out := range d.outputs {
			out.enqueue(rec)
		}
	}
	log.Printf("drain: connection from %s closed", conn.RemoteAddr())
}

// meteredReader counts raw bytes as they come off the socket, before any
// buffering by the decoder.
type meteredReader struct {
	r       io.Reader
	codec   string
	drainID string
}

func (m *meteredReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		bytesReceived.WithLabelValues(m.codec, m.drainID).Add(float64(n))
	}
	return n, err
}
