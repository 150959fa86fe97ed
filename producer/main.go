package main

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

const usageLine = "usage: producer [flags] HOST PORT [COUNT]"

type config struct {
	host           string
	port           string
	count          uint64
	encoding       Encoding
	source         string
	producerID     string
	connectTimeout time.Duration
	metricsAddr    string
}

var errUsage = errors.New("HOST and PORT are required")

func parseArgs(args []string) (*config, error) {
	fs := pflag.NewFlagSet("producer", pflag.ContinueOnError)
	// Flags come before positionals, so a negative COUNT is reported as a
	// bad count rather than an unknown flag.
	fs.SetInterspersed(false)

	encodingName := fs.String("encoding", "msgpack", "wire encoding: msgpack or json")
	source := fs.String("source", defaultSource, "value of the record source field")
	producerID := fs.String("producer-id", "", "metrics label identifying this producer (default: random)")
	connectTimeout := fs.Duration("connect-timeout", 10*time.Second, "TCP connect timeout")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (empty: disabled)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) < 2 {
		return nil, errUsage
	}
	if len(rest) > 3 {
		return nil, fmt.Errorf("unexpected arguments after COUNT: %v", rest[3:])
	}

	cfg := &config{
		host:           rest[0],
		port:           rest[1],
		count:          1,
		source:         *source,
		producerID:     *producerID,
		connectTimeout: *connectTimeout,
		metricsAddr:    *metricsAddr,
	}
	if len(rest) == 3 {
		n, err := strconv.ParseUint(rest[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("COUNT must be a non-negative integer, got %q", rest[2])
		}
		cfg.count = n
	}

	enc, err := parseEncoding(*encodingName)
	if err != nil {
		return nil, err
	}
	cfg.encoding = enc

	if cfg.producerID == "" {
		cfg.producerID = uuid.New().String()[:8]
	}
	return cfg, nil
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, usageLine)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "producer:", err)
		fmt.Fprintln(os.Stderr, usageLine)
		os.Exit(1)
	}

	if cfg.metricsAddr != "" {
		go serveMetrics(cfg.metricsAddr)
	}

	addr := net.JoinHostPort(cfg.host, cfg.port)
	conn, err := net.DialTimeout("tcp", addr, cfg.connectTimeout)
	if err != nil {
		log.Fatalf("producer: connect %s: %v", addr, err)
	}
	defer conn.Close()

	em := newEmitter(conn, cfg.encoding, cfg.source, cfg.producerID)
	start := time.Now()
	if err := em.Run(cfg.count); err != nil {
		log.Fatalf("producer: %v", err)
	}
	elapsed := time.Since(start)

	rate := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rate = float64(em.sentMessages) / s
	}
	log.Printf("producer %s: sent %d messages (%d bytes, %s) to %s in %s (%.0f msg/s)",
		cfg.producerID, em.sentMessages, em.sentBytes, cfg.encoding, addr,
		elapsed.Round(time.Microsecond), rate)
}
