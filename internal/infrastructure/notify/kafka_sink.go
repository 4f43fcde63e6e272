package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

var _ ports.NotificationSink = (*KafkaSink)(nil)

// messageWriter subconjunto de *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica la notificación en un topic. El balanceo por hash del userId (key)
// manda los mensajes de un usuario a una misma partición y conserva su orden. El contexto de traza viaja en headers.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink construye el productor.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaSink{writer: w}
}

type kafkaNotification struct {
	UserID string `json:"userId"`
	entity.Notification
}

func (s *KafkaSink) Send(ctx context.Context, userID string, n entity.Notification) error {
	payload, err := json.Marshal(kafkaNotification{UserID: userID, Notification: n})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier)+1)
	headers = append(headers, kafka.Header{Key: "type", Value: []byte(n.Type)})
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{Key: []byte(userID), Value: payload, Headers: headers}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close vacía y cierra el productor.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
