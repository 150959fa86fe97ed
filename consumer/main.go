package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using %d", key, v, defaultVal)
	}
	return defaultVal
}

func main() {
	listenAddr := getEnv("LISTEN_ADDR", ":10053")
	codecName := getEnv("CODEC", "msgpack")
	outputNames := getEnv("OUTPUTS", "null")
	metricsAddr := getEnv("METRICS_ADDR", ":2112")
	drainID := getEnv("DRAIN_ID", uuid.New().String()[:8])

	go serveMetrics(metricsAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		log.Println("shutting down drain")
		cancel()
	}()

	c, err := parseCodec(codecName)
	if err != nil {
		log.Fatalf("drain: %v", err)
	}

	var runners []*outputRunner
	for _, kind := range strings.Split(outputNames, ",") {
		kind = strings.TrimSpace(kind)
		if kind == "" {
			continue
		}
		out, err := newOutput(kind)
		if err != nil {
			log.Fatalf("drain: %v", err)
		}
		runners = append(runners, startOutput(out))
	}
	if len(runners) == 0 {
		log.Fatal("drain: no outputs configured, set OUTPUTS")
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Fatalf("drain: listen %s: %v", listenAddr, err)
	}

	d := &drain{codec: c, outputs: runners, drainID: drainID}
	if err := d.run(ctx, ln); err != nil {
		log.Printf("drain exited: %v", err)
	}

	// Outputs stop after the listener so every accepted record is flushed.
	for _, r := range runners {
		r.stop()
	}
}
