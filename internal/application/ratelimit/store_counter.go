package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ Counter = (*StoreCounter)(nil)

// StoreCounter contador persistido en rate_limits/{key}, una transacción por intento.
type StoreCounter struct {
	store repository.DocumentStore
}

// NewStoreCounter construye el contador sobre el almacén.
func NewStoreCounter(store repository.DocumentStore) *StoreCounter {
	return &StoreCounter{store: store}
}

// Hit lee {count, windowStart}, decide y escribe sólo si el intento se admite.
func (c *StoreCounter) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	path := entity.CollectionRateLimits + "/" + key
	var decision Decision
	err := c.store.RunTransaction(ctx, func(ctx context.Context, tx repository.Tx) error {
		var cur entity.RateLimitCounter
		if err := tx.Get(ctx, path, &cur); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		d, count, windowStart := evaluate(cur.Count, cur.WindowStart, limit, window, now)
		decision = d
		if !d.Allowed {
			return nil
		}
		return tx.Set(ctx, path, entity.RateLimitCounter{Count: count, WindowStart: windowStart})
	})
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}
