package order_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/audit"
	"github.com/jhoicas/reservas-api/internal/application/command"
	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/application/order"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memstore"
)

type recordingSubmitter struct {
	inputs []command.SubmitInput
}

func (r *recordingSubmitter) Submit(_ context.Context, in command.SubmitInput) (string, error) {
	r.inputs = append(r.inputs, in)
	return "cmd-1", nil
}

func newService(t *testing.T) (*order.Service, *memstore.Store, *recordingSubmitter) {
	t.Helper()
	store := memstore.New()
	sub := &recordingSubmitter{}
	svc := order.NewService(store, inventory.NewLedger(store, zerolog.Nop()), sub, audit.NewLog(store), zerolog.Nop())
	return svc, store, sub
}

func TestService_CreatePersistePendingYPideReserva(t *testing.T) {
	ctx := context.Background()
	svc, store, sub := newService(t)

	o, cmdID, err := svc.Create(ctx, "u1", order.CreateInput{
		Items:  []entity.OrderItem{{ProductID: "p1", Quantity: 2}},
		Amount: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cmd-1", cmdID)
	assert.Equal(t, entity.OrderStatusPending, o.Status)

	var stored entity.Order
	require.NoError(t, store.Get(ctx, entity.OrderPath(o.OrderID), &stored))
	assert.Equal(t, "u1", stored.UserID)
	require.Len(t, sub.inputs, 1)
	assert.Equal(t, entity.CommandReserveInventory, sub.inputs[0].Type)
	assert.Equal(t, o.OrderID, sub.inputs[0].OrderID)
}

func TestService_CreateSinItemsEsValida(t *testing.T) {
	svc, _, _ := newService(t)
	o, _, err := svc.Create(context.Background(), "u1", order.CreateInput{})
	require.NoError(t, err)
	assert.Empty(t, o.Items)
}

func TestService_CreateRechazaCantidadNoPositiva(t *testing.T) {
	svc, _, sub := newService(t)
	_, _, err := svc.Create(context.Background(), "u1", order.CreateInput{
		Items: []entity.OrderItem{{ProductID: "p1", Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, sub.inputs)
}

func TestService_GetSoloDuenoOAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	o, _, err := svc.Create(ctx, "u1", order.CreateInput{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u1", entity.RoleCustomer, o.OrderID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "u2", entity.RoleCustomer, o.OrderID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Get(ctx, "u2", entity.RoleAdmin, o.OrderID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "u1", entity.RoleCustomer, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_CancelAudita(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	o, _, err := svc.Create(ctx, "u1", order.CreateInput{})
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, o.OrderID)
	require.NoError(t, err)
	assert.True(t, res.Success)

	docs, err := store.List(ctx, entity.CollectionAuditLog, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	var entry entity.AuditLogEntry
	require.NoError(t, docs[0].Decode(&entry))
	assert.Equal(t, entity.AuditKindCancel, entry.Kind)
}
