package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/inventory"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
	"github.com/jhoicas/reservas-api/internal/infrastructure/postgres"
)

// newStore requiere TEST_DATABASE_URL; sin ella los tests de integración se omiten.
func newStore(t *testing.T) (*postgres.DocumentStore, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	// colección única por test para no interferir entre ejecuciones
	return postgres.NewDocumentStore(pool), "it_" + uuid.NewString()
}

func TestDocumentStore_CRUD(t *testing.T) {
	s, col := newStore(t)
	ctx := context.Background()
	path := col + "/a"

	require.NoError(t, s.Create(ctx, path, map[string]any{"n": 1, "label": "x"}))
	assert.ErrorIs(t, s.Create(ctx, path, map[string]any{"n": 2}), domain.ErrAlreadyExists)

	require.NoError(t, s.Update(ctx, path, map[string]any{"n": 3}))
	var got map[string]any
	require.NoError(t, s.Get(ctx, path, &got))
	assert.Equal(t, float64(3), got["n"])
	assert.Equal(t, "x", got["label"])

	docs, err := s.List(ctx, col, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, s.Delete(ctx, path))
	assert.ErrorIs(t, s.Get(ctx, path, &got), domain.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, path, map[string]any{"n": 1}), domain.ErrNotFound)
}

func TestDocumentStore_TransaccionesConcurrentes(t *testing.T) {
	s, col := newStore(t)
	ctx := context.Background()
	path := col + "/counter"
	require.NoError(t, s.Set(ctx, path, map[string]any{"n": 0}))

	const workers = 4
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
				var c struct {
					N int `json:"n"`
				}
				if err := tx.Get(ctx, path, &c); err != nil {
					return err
				}
				return tx.Set(ctx, path, map[string]any{"n": c.N + 1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var c struct {
		N int `json:"n"`
	}
	require.NoError(t, s.Get(ctx, path, &c))
	assert.Equal(t, workers, c.N)
}

func TestDocumentStore_LedgerAdmiteMinNSConMuchosCompetidores(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	const (
		stock  = 20
		orders = 50
	)
	productID := "p_" + uuid.NewString()
	require.NoError(t, s.Set(ctx, entity.InventoryPath(productID), entity.InventoryRecord{ProductID: productID, Stock: stock}))
	ids := make([]string, orders)
	for i := range ids {
		ids[i] = "o_" + uuid.NewString()
		require.NoError(t, s.Set(ctx, entity.OrderPath(ids[i]), entity.Order{
			OrderID: ids[i], UserID: "u1", Status: entity.OrderStatusPending,
			Items: []entity.OrderItem{{ProductID: productID, Quantity: 1}},
		}))
	}
	ledger := inventory.NewLedger(s, zerolog.Nop())

	var successes atomic.Int64
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			res, err := ledger.Reserve(ctx, id)
			assert.NoError(t, err)
			if res.Success {
				successes.Add(1)
			} else {
				assert.Equal(t, "insufficient_stock:"+productID, res.Message)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int64(stock), successes.Load())
	var rec entity.InventoryRecord
	require.NoError(t, s.Get(ctx, entity.InventoryPath(productID), &rec))
	assert.Equal(t, int64(stock), rec.Reserved)
	assert.Equal(t, int64(stock), rec.Stock)
}

func TestDocumentStore_TransaccionSobreDocumentoInexistenteSeSerializa(t *testing.T) {
	s, col := newStore(t)
	ctx := context.Background()
	path := col + "/nuevo"

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
				var c struct {
					N int `json:"n"`
				}
				if err := tx.Get(ctx, path, &c); err != nil && !errors.Is(err, domain.ErrNotFound) {
					return err
				}
				return tx.Set(ctx, path, map[string]any{"n": c.N + 1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var c struct {
		N int `json:"n"`
	}
	require.NoError(t, s.Get(ctx, path, &c))
	assert.Equal(t, workers, c.N)
}
