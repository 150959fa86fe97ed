package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// mqttOutput publishes drained records to an MQTT topic, one message per
// record. At QoS 0 publishes are fire-and-forget; higher QoS waits for the
// broker ack so delivery failures surface as feed errors.
type mqttOutput struct {
	client mqtt.Client
	topic  string
	qos    byte
}

func newMQTTOutput() (*mqttOutput, error) {
	broker := getEnv("MQTT_BROKER", "tcp://localhost:1883")
	topic := getEnv("MQTT_TOPIC", "drained/records")
	clientID := getEnv("MQTT_CLIENT_ID", "drain-"+uuid.New().String()[:8])
	qos := byte(envInt("MQTT_QOS", 0))

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetWriteTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", broker, err)
	}

	log.Printf("mqtt output started: broker=%s topic=%s qos=%d", broker, topic, qos)
	return &mqttOutput{client: client, topic: topic, qos: qos}, nil
}

func (o *mqttOutput) name() string { return "mqtt" }

func (o *mqttOutput) feed(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("mqtt: encode: %w", err)
	}

	token := o.client.Publish(o.topic, o.qos, false, data)
	if o.qos > 0 {
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("mqtt: publish: timeout")
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt: publish: %w", err)
		}
	}
	return nil
}

func (o *mqttOutput) close() error {
	// Give in-flight publishes a grace period before dropping the link.
	o.client.Disconnect(1000)
	return nil
}
