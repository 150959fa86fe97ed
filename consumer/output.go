package main

import (
	"fmt"
	"log"
)

// output receives every validated record. Implementations own their sinks
// and release them in close. feed and close are only ever called from the
// output's runner goroutine, so implementations need no locking of their
// own state.
type output interface {
	name() string
	feed(rec record) error
	close() error
}

func newOutput(kind string) (output, error) {
	switch kind {
	case "null":
		return nullOutput{}, nil
	case "file":
		return newFileOutput()
	case "redpanda", "kafka":
		return newRedpandaOutput()
	case "rabbitmq":
		return newRabbitMQOutput()
	case "mqtt":
		return newMQTTOutput()
	case "elasticsearch":
		return newElasticsearchOutput()
	}
	return nil, fmt.Errorf("unknown output %q", kind)
}

// nullOutput drops everything. Useful when only ingest throughput matters.
type nullOutput struct{}

func (nullOutput) name() string      { return "null" }
func (nullOutput) feed(record) error { return nil }
func (nullOutput) close() error      { return nil }

// outputQueueLen bounds each output's queue; a full queue blocks ingest
// rather than dropping records.
const outputQueueLen = 1024

// outputRunner feeds one output from its own goroutine.
type outputRunner struct {
	out  output
	ch   chan record
	done chan struct{}
}

func startOutput(out output) *outputRunner {
	log.Printf("drain: starting %s output", out.name())
	r := &outputRunner{
		out:  out,
		ch:   make(chan record, outputQueueLen),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for rec := range r.ch {
			if err := out.feed(rec); err != nil {
				log.Printf("%s: feed: %v", out.name(), err)
				outputErrors.WithLabelValues(out.name()).Inc()
				continue
			}
			outputFeeds.WithLabelValues(out.name()).Inc()
		}
	}()
	return r
}

func (r *outputRunner) enqueue(rec record) {
	r.ch <- rec
}

// stop drains the queue, then releases the output's sinks.
func (r *outputRunner) stop() {
	close(r.ch)
	<-r.done
	if err := r.out.close(); err != nil {
		log.Printf("%s: close: %v", r.out.name(), err)
	}
}
