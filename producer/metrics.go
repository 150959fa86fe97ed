package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_messages_emitted_total",
		Help: "Total number of messages fully written to the target stream.",
	}, []string{"encoding", "producer_id"})

	bytesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_bytes_emitted_total",
		Help: "Total encoded bytes written to the target stream.",
	}, []string{"encoding", "producer_id"})

	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_write_errors_total",
		Help: "Total number of stream write failures.",
	}, []string{"encoding", "producer_id"})

	writeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "benchmark_write_latency_seconds",
		Help:    "Time to push one encoded message onto the stream.",
		Buckets: []float64{.000001, .000005, .00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"encoding", "producer_id"})
)

func serveMetrics(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	log.Printf("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("metrics server error: %v", err)
	}
}
