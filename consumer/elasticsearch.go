package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// elasticsearchOutput buffers records and ships them as bulk index requests,
// flushing when the batch fills or a timer fires, whichever comes first.
// Batching happens on a dedicated goroutine so a slow cluster delays at most
// one queue of records.
type elasticsearchOutput struct {
	bulkURL    string
	client     *http.Client
	batchSize  int
	flushEvery time.Duration

	ch   chan record
	done chan struct{}
}

func newElasticsearchOutput() (*elasticsearchOutput, error) {
	base := strings.TrimRight(getEnv("ES_URL", "http://localhost:9200"), "/")
	index := getEnv("ES_INDEX", "logs")
	batchSize := envInt("ES_BATCH_SIZE", 100)
	flushMS := envInt("ES_FLUSH_MS", 3000)
	if batchSize < 1 {
		return nil, fmt.Errorf("elasticsearch: ES_BATCH_SIZE must be positive, got %d", batchSize)
	}

	o := &elasticsearchOutput{
		bulkURL:    fmt.Sprintf("%s/%s/_bulk", base, index),
		client:     &http.Client{Timeout: 30 * time.Second},
		batchSize:  batchSize,
		flushEvery: time.Duration(flushMS) * time.Millisecond,
		ch:         make(chan record, batchSize),
		done:       make(chan struct{}),
	}
	go o.flusher()

	log.Printf("elasticsearch output started: url=%s batch=%d flush=%s", o.bulkURL, batchSize, o.flushEvery)
	return o, nil
}

func (o *elasticsearchOutput) name() string { return "elasticsearch" }

func (o *elasticsearchOutput) feed(rec record) error {
	o.ch <- rec
	return nil
}

func (o *elasticsearchOutput) close() error {
	close(o.ch)
	<-o.done
	return nil
}

func (o *elasticsearchOutput) flusher() {
	defer close(o.done)

	ticker := time.NewTicker(o.flushEvery)
	defer ticker.Stop()

	batch := make([]record, 0, o.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := o.bulkIndex(batch); err != nil {
			log.Printf("elasticsearch: bulk index of %d records: %v", len(batch), err)
			outputErrors.WithLabelValues("elasticsearch").Inc()
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-o.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= o.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (o *elasticsearchOutput) bulkIndex(batch []record) error {
	var body bytes.Buffer
	for _, rec := range batch {
		body.WriteString("{\"index\":{}}\n")
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		body.Write(data)
		body.WriteByte('\n')
	}

	req, err := http.NewRequest(http.MethodPost, o.bulkURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("bulk request returned status %d", resp.StatusCode)
	}
	return nil
}
