// Package events publishes domain events over watermill and turns them into
// notification mail.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/elearning-service/internal/config"
)

const (
	TopicUserRegistered     = "user.registered"
	TopicUserVerified       = "user.verified"
	TopicEnrollmentCreated  = "enrollment.created"
	TopicCertificateIssued  = "certificate.issued"
	TopicApplicationChanged = "application.status_changed"
)

type UserRegistered struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type EnrollmentCreated struct {
	EnrollmentID uint   `json:"enrollment_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Course       string `json:"course"`
}

type CertificateIssued struct {
	CertificationID  uint      `json:"certification_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Course           string    `json:"course"`
	CertificateType  string    `json:"certificate_type"`
	VerificationCode string    `json:"verification_code"`
	IssuedAt         time.Time `json:"issued_at"`
}

type ApplicationStatusChanged struct {
	ApplicationID uint   `json:"application_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Job           string `json:"job"`
	Status        string `json:"status"`
}

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Bus owns the watermill publisher and subscriber pair
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	// shared is set when publisher and subscriber are the same channel
	shared bool
}

var _ Publisher = (*Bus)(nil)

// NewBus connects to kafka when brokers are configured and falls back to an
// in-process channel otherwise
func NewBus(cfg config.KafkaConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if len(cfg.Brokers) == 0 {
		return NewChannelBus(wmLogger), nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         cfg.ConsumerGroup,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &Bus{publisher: publisher, subscriber: subscriber, logger: wmLogger}, nil
}

// NewChannelBus returns an in-process bus
func NewChannelBus(logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Bus{publisher: ch, subscriber: ch, logger: logger, shared: true}
}

func (b *Bus) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

func (b *Bus) Logger() watermill.LoggerAdapter {
	return b.logger
}

func (b *Bus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}
	if b.shared {
		return nil
	}
	return b.subscriber.Close()
}

// Discard drops every event
type Discard struct{}

func (Discard) Publish(context.Context, string, any) error { return nil }
