// Package notify bridges offer delivery to the message broker the client
// notification service consumes from.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dispatchlab/fieldsched/core/logger"
	"github.com/dispatchlab/fieldsched/core/model"
	corenotify "github.com/dispatchlab/fieldsched/core/notify"
)

// Config holds broker settings for offer delivery.
type Config struct {
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	TopicPrefix    string `json:"topic_prefix"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "fieldsched-submitter"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fieldsched/offers"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// MQTTNotifier publishes offers to the broker at QoS 1. Publish failures
// surface as unreachable rejections so the submitter walks the fallback
// candidates.
type MQTTNotifier struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
	log     logger.Logger
}

// NewMQTTNotifier connects to the broker and returns the notifier.
func NewMQTTNotifier(cfg Config, log logger.Logger) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTNotifier{
		client:  client,
		prefix:  cfg.TopicPrefix,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		log:     log,
	}, nil
}

type offerPayload struct {
	OfferID    string `json:"offer_id"`
	JobID      string `json:"job_id"`
	EngineerID string `json:"engineer_id"`
	Date       string `json:"date"`
	TimeWindow string `json:"time_window"`
	Channel    string `json:"channel"`
}

// Send implements corenotify.Notifier.
func (n *MQTTNotifier) Send(ctx context.Context, offer model.Offer) error {
	payload, err := json.Marshal(offerPayload{
		OfferID:    offer.ID,
		JobID:      offer.JobID,
		EngineerID: offer.EngineerID,
		Date:       offer.Date.Format("2006-01-02"),
		TimeWindow: offer.TimeWindow,
		Channel:    offer.Channel,
	})
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s", n.prefix, offer.JobID)
	token := n.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(n.timeout) {
		return &corenotify.RejectError{Code: corenotify.RejectUnreachable, Msg: "publish timeout"}
	}
	if err := token.Error(); err != nil {
		return &corenotify.RejectError{Code: corenotify.RejectUnreachable, Msg: err.Error()}
	}
	if n.log != nil {
		n.log.Debugf("offer %s published to %s", offer.ID, topic)
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
