package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_records_received_total",
		Help: "Total number of records decoded from producer connections.",
	}, []string{"codec", "drain_id"})

	bytesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_bytes_received_total",
		Help: "Total bytes read from producer connections.",
	}, []string{"codec", "drain_id"})

	decodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_decode_errors_total",
		Help: "Total number of wire decode failures; each one ends its connection.",
	}, []string{"codec", "drain_id"})

	recordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_records_dropped_total",
		Help: "Total number of records dropped for missing the message field.",
	}, []string{"codec", "drain_id"})

	activeConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "benchmark_active_connections",
		Help: "Number of open producer connections.",
	}, []string{"drain_id"})

	outputFeeds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_output_feed_total",
		Help: "Total number of records accepted by each output.",
	}, []string{"output"})

	outputErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_output_errors_total",
		Help: "Total number of output delivery failures.",
	}, []string{"output"})
)

func serveMetrics(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	log.Printf("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("metrics server error: %v", err)
	}
}
