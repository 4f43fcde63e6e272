package webhook_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/application/webhook"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memstore"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []entity.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, notif entity.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notif)
}

type failingFinalizer struct{}

func (failingFinalizer) Finalize(context.Context, string) (inventory.Result, error) {
	return inventory.Result{}, errors.New("almacén no disponible")
}

// flakyStore falla las próximas failures transacciones como lo haría una conexión caída.
type flakyStore struct {
	*memstore.Store
	failures atomic.Int32
}

func (s *flakyStore) RunTransaction(ctx context.Context, fn repository.TxFunc) error {
	if s.failures.Add(-1) >= 0 {
		return errors.New("connection reset")
	}
	return s.Store.RunTransaction(ctx, fn)
}

type fixture struct {
	store    *memstore.Store
	handler  *webhook.PaymentEventHandler
	notifier *recordingNotifier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memstore.New()
	notifier := &recordingNotifier{}
	ledger := inventory.NewLedger(store, zerolog.Nop())
	h := webhook.NewPaymentEventHandler(webhook.NewGuard(store), ledger, audit.NewLog(store), notifier, zerolog.Nop())

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, entity.InventoryPath("p1"), entity.InventoryRecord{ProductID: "p1", Stock: 5}))
	require.NoError(t, store.Set(ctx, entity.OrderPath("o1"), entity.Order{
		OrderID: "o1", UserID: "u1", Status: entity.OrderStatusPending,
		Items: []entity.OrderItem{{ProductID: "p1", Quantity: 2}},
	}))
	_, err := ledger.Reserve(ctx, "o1")
	require.NoError(t, err)
	return fixture{store: store, handler: h, notifier: notifier}
}

func envelope(id string, typ webhook.EventType, orderID string) webhook.Envelope {
	var env webhook.Envelope
	env.ID = id
	env.Type = typ
	env.Data.Object.ID = "pi_1"
	env.Data.Object.Metadata = map[string]string{"orderId": orderID}
	return env
}

func countAudit(t *testing.T, store *memstore.Store, kind string) int {
	t.Helper()
	docs, err := store.List(context.Background(), entity.CollectionAuditLog, 0)
	require.NoError(t, err)
	n := 0
	for _, d := range docs {
		var e entity.AuditLogEntry
		require.NoError(t, d.Decode(&e))
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// ──────────────────────────────────────────────────────────────────────────────
// Entrega duplicada
// ──────────────────────────────────────────────────────────────────────────────

func TestHandle_EventoDuplicadoFinalizaUnaSolaVez(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	env := envelope("evt_1", webhook.EventPaymentIntentSucceeded, "o1")

	out, err := f.handler.Handle(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, webhook.OutcomeOK, out)

	out, err = f.handler.Handle(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, webhook.OutcomeDuplicate, out)

	var rec entity.InventoryRecord
	require.NoError(t, f.store.Get(ctx, entity.InventoryPath("p1"), &rec))
	assert.Equal(t, int64(3), rec.Stock)
	assert.Equal(t, int64(0), rec.Reserved)
	assert.Equal(t, 1, countAudit(t, f.store, entity.AuditKindWebhook))
	assert.Len(t, f.notifier.sent, 1)

	var ev entity.WebhookEvent
	require.NoError(t, f.store.Get(ctx, entity.WebhookEventPath("evt_1"), &ev))
	assert.True(t, ev.Processed)
	assert.NotNil(t, ev.ProcessedAt)
}

func TestHandle_EntregasConcurrentesUnaSolaAuditoria(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	env := envelope("evt_c", webhook.EventChargeSucceeded, "o1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.handler.Handle(ctx, env)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, countAudit(t, f.store, entity.AuditKindWebhook))
	var rec entity.InventoryRecord
	require.NoError(t, f.store.Get(ctx, entity.InventoryPath("p1"), &rec))
	assert.Equal(t, int64(3), rec.Stock)
}

func TestHandle_SinIDUsaIDDerivado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	env := envelope("", webhook.EventPaymentIntentSucceeded, "o1")

	_, err := f.handler.Handle(ctx, env)
	require.NoError(t, err)
	out, err := f.handler.Handle(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, webhook.OutcomeDuplicate, out)

	var ev entity.WebhookEvent
	require.NoError(t, f.store.Get(ctx, entity.WebhookEventPath("derived:payment_intent.succeeded:o1"), &ev))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación y tipos ignorados
// ──────────────────────────────────────────────────────────────────────────────

func TestHandle_TipoNoReconocidoSeIgnora(t *testing.T) {
	f := newFixture(t)
	out, err := f.handler.Handle(context.Background(), envelope("evt_2", "customer.created", "o1"))
	require.NoError(t, err)
	assert.Equal(t, webhook.OutcomeIgnored, out)
	assert.Equal(t, 0, countAudit(t, f.store, entity.AuditKindWebhook))
}

func TestHandle_SinOrderIDEsEntradaInvalida(t *testing.T) {
	f := newFixture(t)
	_, err := f.handler.Handle(context.Background(), envelope("evt_3", webhook.EventPaymentIntentSucceeded, ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// también para tipos que se ignorarían
	_, err = f.handler.Handle(context.Background(), envelope("evt_3b", "customer.created", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHandle_FinalizeRechazadoSeAuditaSinNotificar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Set(ctx, entity.OrderPath("o2"), entity.Order{
		OrderID: "o2", Status: entity.OrderStatusPending,
		Items: []entity.OrderItem{{ProductID: "p1", Quantity: 50}},
	}))

	out, err := f.handler.Handle(ctx, envelope("evt_4", webhook.EventPaymentIntentSucceeded, "o2"))
	require.NoError(t, err)
	assert.Equal(t, webhook.OutcomeOK, out)
	assert.Empty(t, f.notifier.sent)
	assert.Equal(t, 1, countAudit(t, f.store, entity.AuditKindWebhook))
}

func TestHandle_ErrorInternoLiberaElToken(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	h := webhook.NewPaymentEventHandler(webhook.NewGuard(store), failingFinalizer{}, audit.NewLog(store), &recordingNotifier{}, zerolog.Nop())

	_, err := h.Handle(ctx, envelope("evt_5", webhook.EventPaymentIntentSucceeded, "o1"))
	require.Error(t, err)

	var ev entity.WebhookEvent
	assert.ErrorIs(t, store.Get(ctx, entity.WebhookEventPath("evt_5"), &ev), domain.ErrNotFound)
}

func TestHandle_FalloDeAlmacenPermiteReentregar(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memstore.New()}
	ledger := inventory.NewLedger(store, zerolog.Nop())
	notifier := &recordingNotifier{}
	h := webhook.NewPaymentEventHandler(webhook.NewGuard(store), ledger, audit.NewLog(store), notifier, zerolog.Nop())

	require.NoError(t, store.Set(ctx, entity.InventoryPath("p1"), entity.InventoryRecord{ProductID: "p1", Stock: 5}))
	require.NoError(t, store.Set(ctx, entity.OrderPath("o1"), entity.Order{
		OrderID: "o1", UserID: "u1", Status: entity.OrderStatusPending,
		Items: []entity.OrderItem{{ProductID: "p1", Quantity: 2}},
	}))
	_, err := ledger.Reserve(ctx, "o1")
	require.NoError(t, err)

	store.failures.Store(1)
	env := envelope("evt_6", webhook.EventPaymentIntentSucceeded, "o1")
	_, err = h.Handle(ctx, env)
	require.Error(t, err)

	var o entity.Order
	require.NoError(t, store.Get(ctx, entity.OrderPath("o1"), &o))
	assert.Equal(t, entity.OrderStatusReserved, o.Status, "un fallo de transporte no marca la orden")
	assert.Empty(t, o.FailureReason)

	// el proveedor reentrega el mismo evento
	out, err := h.Handle(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, webhook.OutcomeOK, out)

	require.NoError(t, store.Get(ctx, entity.OrderPath("o1"), &o))
	assert.Equal(t, entity.OrderStatusFinalized, o.Status)
	var rec entity.InventoryRecord
	require.NoError(t, store.Get(ctx, entity.InventoryPath("p1"), &rec))
	assert.Equal(t, int64(3), rec.Stock)
	assert.Equal(t, int64(0), rec.Reserved)
	assert.Len(t, notifier.sent, 1)
}

func TestParseEnvelope(t *testing.T) {
	env, err := webhook.ParseEnvelope([]byte(`{"id":"evt_9","type":"charge.succeeded","data":{"object":{"id":"ch_1","metadata":{"orderId":"o9"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_9", env.EventID())
	assert.Equal(t, "o9", env.OrderID())
	assert.True(t, env.Type.TriggersFinalize())

	_, err = webhook.ParseEnvelope([]byte(`{`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
