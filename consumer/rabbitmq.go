package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/amqp"
	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/message"
	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/stream"
)

// rabbitMQOutput republishes drained records onto a RabbitMQ super stream,
// hash-routed by the record source so each producer's stream lands on a
// consistent partition.
type rabbitMQOutput struct {
	env      *stream.Environment
	producer *stream.SuperStreamProducer
}

func connectRabbitMQEnv(host string, port int, user, pass string) *stream.Environment {
	opts := stream.NewEnvironmentOptions().
		SetHost(host).
		SetPort(port).
		SetUser(user).
		SetPassword(pass)
	for {
		env, err := stream.NewEnvironment(opts)
		if err == nil {
			return env
		}
		log.Printf("rabbitmq: connect failed (%v), retrying in 3s…", err)
		time.Sleep(3 * time.Second)
	}
}

func newRabbitMQOutput() (*rabbitMQOutput, error) {
	host := getEnv("BROKER_HOST", "rabbitmq")
	port, _ := strconv.Atoi(getEnv("BROKER_PORT", "5552"))
	user := getEnv("BROKER_USER", "guest")
	pass := getEnv("BROKER_PASS", "guest")
	superStream := getEnv("TOPIC", "drained-records")
	partitions, _ := strconv.Atoi(getEnv("PARTITIONS", "8"))

	env := connectRabbitMQEnv(host, port, user, pass)

	// Declare super stream (idempotent).
	if err := env.DeclareSuperStream(superStream, stream.NewPartitionsOptions(partitions)); err != nil {
		log.Printf("rabbitmq: declare super stream: %v (may already exist)", err)
	}

	routingStrategy := stream.NewHashRoutingStrategy(func(msg message.StreamMessage) string {
		props := msg.GetApplicationProperties()
		if key, ok := props["routing-key"].(string); ok {
			return key
		}
		return ""
	})

	producer, err := env.NewSuperStreamProducer(
		superStream,
		stream.NewSuperStreamProducerOptions(routingStrategy),
	)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("rabbitmq: create super stream producer: %w", err)
	}

	chConfirm := producer.NotifyPublishConfirmation(10_000)
	go func() {
		for partConfirm := range chConfirm {
			for _, cs := range partConfirm.ConfirmationStatus {
				if !cs.IsConfirmed() {
					outputErrors.WithLabelValues("rabbitmq").Inc()
				}
			}
		}
	}()

	log.Printf("rabbitmq output started: superStream=%s partitions=%d", superStream, partitions)
	return &rabbitMQOutput{env: env, producer: producer}, nil
}

func (o *rabbitMQOutput) name() string { return "rabbitmq" }

func (o *rabbitMQOutput) feed(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode: %w", err)
	}

	msg := amqp.NewMessage(data)
	msg.ApplicationProperties = map[string]interface{}{"routing-key": recordKey(rec)}
	if err := o.producer.Send(msg); err != nil {
		return fmt.Errorf("rabbitmq: send: %w", err)
	}
	return nil
}

func (o *rabbitMQOutput) close() error {
	if err := o.producer.Close(); err != nil {
		o.env.Close()
		return fmt.Errorf("rabbitmq: close producer: %w", err)
	}
	return o.env.Close()
}
