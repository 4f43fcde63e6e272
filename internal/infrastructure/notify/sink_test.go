package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memstore"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestStoreSink_CreaDocumentoBajoElUsuario(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sink := NewStoreSink(store)

	n := entity.Notification{Type: entity.NotificationOrderFinalized, OrderID: "o1", CreatedAt: time.Now().UTC()}
	require.NoError(t, sink.Send(ctx, "u1", n))

	docs, err := store.List(ctx, entity.NotificationsCollection("u1"), 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	var got entity.Notification
	require.NoError(t, docs[0].Decode(&got))
	assert.Equal(t, "o1", got.OrderID)
}

func TestKafkaSink_PublicaConKeyDeUsuario(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w}

	err := sink.Send(context.Background(), "u1", entity.Notification{Type: entity.NotificationPaymentSucceeded, OrderID: "o1"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u1", string(w.msgs[0].Key))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, "u1", body["userId"])
	assert.Equal(t, "o1", body["orderId"])
	assert.Equal(t, "type", w.msgs[0].Headers[0].Key)
}

func TestKafkaSink_PropagaError(t *testing.T) {
	sink := &KafkaSink{writer: &fakeWriter{err: errors.New("broker caído")}}
	err := sink.Send(context.Background(), "u1", entity.Notification{Type: "x"})
	assert.Error(t, err)
}

func TestNewKafkaSink_BalanceaPorKeyDeUsuario(t *testing.T) {
	sink := NewKafkaSink([]string{"localhost:9092"}, "notificaciones")
	defer sink.Close()

	w, ok := sink.writer.(*kafka.Writer)
	require.True(t, ok)
	require.IsType(t, &kafka.Hash{}, w.Balancer)

	partitions := []int{0, 1, 2, 3, 4, 5, 6, 7}
	first := w.Balancer.Balance(kafka.Message{Key: []byte("u1")}, partitions...)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, w.Balancer.Balance(kafka.Message{Key: []byte("u1")}, partitions...))
	}
}
