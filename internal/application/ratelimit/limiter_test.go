package ratelimit_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/application/ratelimit"
	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/infrastructure/memstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newLimiter(t *testing.T) (*ratelimit.Limiter, *memstore.Store, *fakeClock) {
	t.Helper()
	store := memstore.New()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return ratelimit.NewLimiter(ratelimit.NewStoreCounter(store), ratelimit.WithClock(clock.Now)), store, clock
}

func TestLimiter_TerceraLlamadaEnLaVentanaSeRechaza(t *testing.T) {
	ctx := context.Background()
	l, _, clock := newLimiter(t)

	d1, err := l.CheckAndIncrement(ctx, "u1", "write", 2, time.Minute)
	require.NoError(t, err)
	clock.Advance(10 * time.Second)
	d2, err := l.CheckAndIncrement(ctx, "u1", "write", 2, time.Minute)
	require.NoError(t, err)
	d3, err := l.CheckAndIncrement(ctx, "u1", "write", 2, time.Minute)
	require.NoError(t, err)

	assert.True(t, d1.Allowed)
	assert.True(t, d2.Allowed)
	assert.False(t, d3.Allowed)
	assert.Equal(t, 50*time.Second, d3.RetryAfter)
}

func TestLimiter_RechazoNoIncrementaElContador(t *testing.T) {
	ctx := context.Background()
	l, store, _ := newLimiter(t)

	for i := 0; i < 5; i++ {
		_, err := l.CheckAndIncrement(ctx, "u1", "write", 2, time.Minute)
		require.NoError(t, err)
	}
	var c entity.RateLimitCounter
	require.NoError(t, store.Get(ctx, entity.RateLimitPath("u1", "write"), &c))
	assert.Equal(t, 2, c.Count)
}

func TestLimiter_VentanaNuevaReiniciaElConteo(t *testing.T) {
	ctx := context.Background()
	l, _, clock := newLimiter(t)

	for i := 0; i < 2; i++ {
		_, err := l.CheckAndIncrement(ctx, "u1", "write", 2, time.Minute)
		require.NoError(t, err)
	}
	clock.Advance(time.Minute + time.Millisecond)
	d, err := l.CheckAndIncrement(ctx, "u1", "write", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestLimiter_ClavesIndependientesPorPrincipalYAccion(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLimiter(t)

	_, err := l.CheckAndIncrement(ctx, "u1", "write", 1, time.Minute)
	require.NoError(t, err)
	d, err := l.CheckAndIncrement(ctx, "u2", "write", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	d, err = l.CheckAndIncrement(ctx, "u1", "reserve", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_EntradaInvalida(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLimiter(t)

	cases := []struct {
		name      string
		principal string
		limit     int
		window    time.Duration
	}{
		{"limit cero", "u1", 0, time.Minute},
		{"ventana cero", "u1", 1, 0},
		{"sin principal", "", 1, time.Minute},
		{"principal con barra", "a/b", 1, time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.CheckAndIncrement(ctx, tc.principal, "write", tc.limit, tc.window)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLimiter_EnforceDevuelveRateLimitError(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLimiter(t)

	require.NoError(t, l.Enforce(ctx, "u1", "write", 1, time.Minute))
	err := l.Enforce(ctx, "u1", "write", 1, time.Minute)

	var rle *domain.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Greater(t, rle.RetryAfter, time.Duration(0))
}

func TestLimiter_ConcurrenciaNoSuperaElLimite(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newLimiter(t)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.CheckAndIncrement(ctx, "u1", "write", 10, time.Minute)
			assert.NoError(t, err)
			if d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(10), allowed.Load())
}
