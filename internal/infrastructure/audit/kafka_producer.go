// Package audit emits security-relevant events onto a Kafka stream. Emission
// is best-effort: a broker outage degrades to a log line, never to a failed
// ticket request.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

// Event is the wire shape of one audit stream entry.
type Event struct {
	Type       constants.AuditEventType `json:"type"`
	OccurredAt time.Time                `json:"occurred_at"`
	RequestID  string                   `json:"request_id,omitempty"`
	Fields     map[string]interface{}   `json:"fields,omitempty"`
}

// KafkaProducer is the Kafka-backed audit service.
type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaProducer creates an audit producer writing to the configured topic.
func NewKafkaProducer(cfg *config.AuditConfig, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
	return &KafkaProducer{writer: writer, logger: log}
}

// Record publishes the event. Failures are logged and swallowed.
func (p *KafkaProducer) Record(ctx context.Context, event constants.AuditEventType, fields map[string]interface{}) {
	requestID, _ := ctx.Value(constants.ContextKeyRequestID).(string)

	payload, err := json.Marshal(Event{
		Type:       event,
		OccurredAt: time.Now().UTC(),
		RequestID:  requestID,
		Fields:     fields,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to marshal audit event", err,
			logger.Fields{"event_type": event})
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: payload,
	}); err != nil {
		p.logger.Error(ctx, "failed to publish audit event", err,
			logger.Fields{"event_type": event})
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

var _ service.AuditService = (*KafkaProducer)(nil)

// NoopAuditService discards every event. Used when auditing is disabled and
// in tests.
type NoopAuditService struct{}

// Record discards the event.
func (NoopAuditService) Record(ctx context.Context, event constants.AuditEventType, fields map[string]interface{}) {
}

var _ service.AuditService = (*NoopAuditService)(nil)
