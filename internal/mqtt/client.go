package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/VitalTrace/healthmon_backend/internal/models"
	"github.com/VitalTrace/healthmon_backend/internal/services"
	"github.com/VitalTrace/healthmon_backend/internal/stats"
)

// Client wraps the MQTT client with health telemetry specific functionality
type Client struct {
	client       mqtt.Client
	parser       *services.VitalsParser
	dataHandler  func(*models.HealthReading)
	errorHandler func(error)
	isConnected  bool
	reportTopic  string
}

// Config holds MQTT connection configuration
type Config struct {
	BrokerURL    string
	ClientID     string
	Username     string
	Password     string
	KeepAlive    time.Duration
	PingTimeout  time.Duration
	ConnectRetry bool
	VitalsTopic  string
	ReportTopic  string
}

// DefaultConfig returns default MQTT configuration
func DefaultConfig() *Config {
	return &Config{
		BrokerURL:    "tcp://localhost:1883",
		ClientID:     "healthmon_backend",
		Username:     "",
		Password:     "",
		KeepAlive:    30 * time.Second,
		PingTimeout:  10 * time.Second,
		ConnectRetry: true,
		VitalsTopic:  "healthmon/vitals/data",
		ReportTopic:  "healthmon/reports",
	}
}

// NewClient creates a new MQTT client for smartwatch telemetry ingest
func NewClient(config *Config) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)
	opts.SetKeepAlive(config.KeepAlive)
	opts.SetPingTimeout(config.PingTimeout)
	opts.SetCleanSession(true)

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	client := &Client{
		parser:      services.NewVitalsParser(),
		isConnected: false,
		reportTopic: config.ReportTopic,
	}

	// Set connection handlers
	opts.SetDefaultPublishHandler(client.defaultMessageHandler)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)

	client.client = mqtt.NewClient(opts)

	return client
}

// Connect establishes connection to MQTT broker
func (c *Client) Connect() error {
	log.Println("Connecting to MQTT broker...")

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("Successfully connected to MQTT broker")
	c.isConnected = true
	return nil
}

// Disconnect closes the MQTT connection
func (c *Client) Disconnect() {
	if c.isConnected {
		c.client.Disconnect(250)
		c.isConnected = false
		log.Println("Disconnected from MQTT broker")
	}
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.isConnected && c.client.IsConnected()
}

// SubscribeToVitals subscribes to smartwatch vitals topics
func (c *Client) SubscribeToVitals() error {
	topics := map[string]byte{
		"healthmon/vitals/+/data": 1, // + is wildcard for person ID
		"healthmon/vitals/data":   1, // General vitals topic, person_id in payload
	}

	for topic, qos := range topics {
		if token := c.client.Subscribe(topic, qos, c.vitalsHandler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
		}
		log.Printf("Subscribed to topic: %s", topic)
	}

	return nil
}

// SetDataHandler sets the callback function for parsed readings
func (c *Client) SetDataHandler(handler func(*models.HealthReading)) {
	c.dataHandler = handler
}

// SetErrorHandler sets the callback function for errors
func (c *Client) SetErrorHandler(handler func(error)) {
	c.errorHandler = handler
}

// personIDFromTopic extracts the person ID from a per-person vitals topic
// (healthmon/vitals/<person_id>/data). Returns "" for the general topic.
func personIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 4 && parts[0] == "healthmon" && parts[1] == "vitals" && parts[3] == "data" {
		return parts[2]
	}
	return ""
}

// vitalsHandler processes incoming vitals messages
func (c *Client) vitalsHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received vitals on topic %s: %s", msg.Topic(), string(msg.Payload()))

	fallbackID := personIDFromTopic(msg.Topic())

	reading, err := c.parser.ParseRecordJSON(msg.Payload(), fallbackID)
	if err != nil {
		log.Printf("Failed to parse vitals record: %v", err)
		if c.errorHandler != nil {
			c.errorHandler(fmt.Errorf("vitals record parsing failed: %w", err))
		}
		return
	}

	// Log the successful parsing
	log.Printf("Parsed health reading: %s", c.parser.FormatReading(reading))

	// Call the data handler if set
	if c.dataHandler != nil {
		c.dataHandler(reading)
	}
}

// defaultMessageHandler handles messages on unsubscribed topics
func (c *Client) defaultMessageHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received message on unhandled topic %s: %s", msg.Topic(), string(msg.Payload()))
}

// onConnect callback when connection is established
func (c *Client) onConnect(client mqtt.Client) {
	log.Println("MQTT client connected")
	c.isConnected = true
}

// onConnectionLost callback when connection is lost
func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	c.isConnected = false

	if c.errorHandler != nil {
		c.errorHandler(fmt.Errorf("MQTT connection lost: %w", err))
	}
}

// PublishReport publishes a computed health report for downstream consumers
func (c *Client) PublishReport(report *stats.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", c.reportTopic, report.PersonID)
	if token := c.client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish report: %w", token.Error())
	}

	log.Printf("Published report to %s", topic)
	return nil
}
