package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// redpandaOutput republishes drained records to a Kafka-compatible broker so
// downstream jobs can replay a benchmark run. Records are keyed by their
// source field, which keeps each producer's stream on one partition.
type redpandaOutput struct {
	client *kgo.Client
	topic  string
}

func newRedpandaOutput() (*redpandaOutput, error) {
	brokerAddrs := strings.Split(getEnv("BROKER_ADDR", "redpanda:9092"), ",")
	topic := getEnv("TOPIC", "drained-records")
	partitions, _ := strconv.Atoi(getEnv("PARTITIONS", "8"))

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokerAddrs...),
		kgo.DefaultProduceTopic(topic),
		// Key-based partitioning keeps a source on a consistent partition.
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("redpanda: create client: %w", err)
	}

	// Ensure topic exists with the right partition count.
	adm := kadm.NewClient(cl)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := adm.CreateTopics(ctx, int32(partitions), 1, nil, topic); err != nil {
		// Topic may already exist — not fatal.
		log.Printf("redpanda: create topic: %v (may already exist)", err)
	}

	log.Printf("redpanda output started: topic=%s partitions=%d", topic, partitions)
	return &redpandaOutput{client: cl, topic: topic}, nil
}

func (o *redpandaOutput) name() string { return "redpanda" }

func (o *redpandaOutput) feed(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redpanda: encode: %w", err)
	}

	r := &kgo.Record{Key: []byte(recordKey(rec)), Value: data}
	// Produce is async; the callback fires when the broker acknowledges.
	o.client.Produce(context.Background(), r, func(_ *kgo.Record, err error) {
		if err != nil {
			log.Printf("redpanda: produce: %v", err)
			outputErrors.WithLabelValues("redpanda").Inc()
		}
	})
	return nil
}

func (o *redpandaOutput) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := o.client.Flush(ctx)
	o.client.Close()
	if err != nil {
		return fmt.Errorf("redpanda: flush: %w", err)
	}
	return nil
}

// recordKey picks the partitioning key for republished records.
func recordKey(rec record) string {
	if v, ok := rec.find("source"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
