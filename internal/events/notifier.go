package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/SAP-F-2025/elearning-service/internal/mail"
	"github.com/SAP-F-2025/elearning-service/internal/metrics"
)

// Notifier turns domain events into email
type Notifier struct {
	sender mail.Sender
	logger *slog.Logger
}

func NewNotifier(sender mail.Sender, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// NewRouter wires a notifier handler per topic onto the bus subscriber
func NewRouter(bus *Bus, notifier *Notifier) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, bus.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          bus.Logger(),
		}.Middleware,
	)

	handlers := map[string]message.NoPublishHandlerFunc{
		TopicUserRegistered:     notifier.userRegistered,
		TopicEnrollmentCreated:  notifier.enrollmentCreated,
		TopicCertificateIssued:  notifier.certificateIssued,
		TopicApplicationChanged: notifier.applicationChanged,
	}
	for topic, h := range handlers {
		router.AddNoPublisherHandler("notify_"+topic, topic, bus.Subscriber(), instrument(topic, h))
	}
	return router, nil
}

func instrument(topic string, h message.NoPublishHandlerFunc) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		err := h(msg)
		metrics.RecordEvent(topic, err == nil)
		return err
	}
}

func decode[T any](msg *message.Message) (T, error) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("failed to decode event %s: %w", msg.UUID, err)
	}
	return event, nil
}

func (n *Notifier) send(msg *message.Message, kind string, m mail.Message) error {
	err := n.sender.Send(msg.Context(), m)
	metrics.RecordEmail(kind, err == nil)
	if err != nil {
		n.logger.Error("Failed to send notification", "kind", kind, "to", m.To, "error", err)
		return err
	}
	return nil
}

func (n *Notifier) userRegistered(msg *message.Message) error {
	event, err := decode[UserRegistered](msg)
	if err != nil {
		n.logger.Error("Dropping malformed event", "topic", TopicUserRegistered, "error", err)
		return nil
	}
	n.logger.Info("User registered", "user_id", event.UserID, "email", event.Email)
	return nil
}

func (n *Notifier) enrollmentCreated(msg *message.Message) error {
	event, err := decode[EnrollmentCreated](msg)
	if err != nil {
		n.logger.Error("Dropping malformed event", "topic", TopicEnrollmentCreated, "error", err)
		return nil
	}
	return n.send(msg, "enrollment", mail.EnrollmentMessage(event.Email, event.Name, event.Course))
}

func (n *Notifier) certificateIssued(msg *message.Message) error {
	event, err := decode[CertificateIssued](msg)
	if err != nil {
		n.logger.Error("Dropping malformed event", "topic", TopicCertificateIssued, "error", err)
		return nil
	}
	return n.send(msg, "certificate", mail.CertificateIssuedMessage(
		event.Email, event.Name, event.Course, event.CertificateType, event.VerificationCode, event.IssuedAt))
}

func (n *Notifier) applicationChanged(msg *message.Message) error {
	event, err := decode[ApplicationStatusChanged](msg)
	if err != nil {
		n.logger.Error("Dropping malformed event", "topic", TopicApplicationChanged, "error", err)
		return nil
	}
	return n.send(msg, "application", mail.ApplicationStatusMessage(event.Email, event.Name, event.Job, event.Status))
}
