// Package ratelimit limitador de ventana fija por (principal, acción).
//
// La ventana es fija, no deslizante: en el borde entre dos ventanas pueden pasar hasta
// 2×limit peticiones. Un rechazo no es un error a reintentar de inmediato; el caller
// debe responder resource-exhausted con RetryAfter.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/reservas-api/internal/domain"
)

// Decision resultado de un intento.
type Decision struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// Counter backend del contador (documento en el almacén o Redis). Hit aplica el
// algoritmo de forma atómica para la clave.
type Counter interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error)
}

// Limiter valida la entrada y delega en el Counter con el reloj inyectado.
type Limiter struct {
	counter Counter
	now     func() time.Time
}

// Option configura el Limiter.
type Option func(*Limiter)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter construye el limitador.
func NewLimiter(counter Counter, opts ...Option) *Limiter {
	l := &Limiter{counter: counter, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndIncrement cuenta un intento si cabe en la ventana actual.
func (l *Limiter) CheckAndIncrement(ctx context.Context, principal, action string, limit int, window time.Duration) (Decision, error) {
	if err := validate(principal, action, limit, window); err != nil {
		return Decision{}, err
	}
	d, err := l.counter.Hit(ctx, Key(principal, action), limit, window, l.now())
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s/%s: %w", principal, action, err)
	}
	return d, nil
}

// Enforce como CheckAndIncrement pero devuelve *domain.RateLimitError si se rechaza.
func (l *Limiter) Enforce(ctx context.Context, principal, action string, limit int, window time.Duration) error {
	d, err := l.CheckAndIncrement(ctx, principal, action, limit, window)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &domain.RateLimitError{RetryAfter: d.RetryAfter}
	}
	return nil
}

// Key clave del contador "principal__acción".
func Key(principal, action string) string {
	return principal + "__" + action
}

func validate(principal, action string, limit int, window time.Duration) error {
	switch {
	case principal == "" || action == "":
		return fmt.Errorf("%w: principal y acción son obligatorios", domain.ErrInvalidInput)
	case strings.Contains(principal, "/") || strings.Contains(action, "/"):
		return fmt.Errorf("%w: principal o acción con '/'", domain.ErrInvalidInput)
	case limit <= 0:
		return fmt.Errorf("%w: limit debe ser > 0", domain.ErrInvalidInput)
	case window <= 0:
		return fmt.Errorf("%w: window debe ser > 0", domain.ErrInvalidInput)
	}
	return nil
}

// evaluate algoritmo de ventana fija sobre el estado leído. Devuelve el nuevo estado
// a escribir (sólo si Allowed).
func evaluate(count int, windowStart int64, limit int, window time.Duration, now time.Time) (Decision, int, int64) {
	nowMs := now.UnixMilli()
	if nowMs-windowStart > window.Milliseconds() {
		count, windowStart = 0, nowMs
	}
	if count+1 > limit {
		retry := time.Duration(windowStart+window.Milliseconds()-nowMs) * time.Millisecond
		if retry < time.Millisecond {
			retry = time.Millisecond
		}
		return Decision{Allowed: false, Count: count, RetryAfter: retry}, count, windowStart
	}
	return Decision{Allowed: true, Count: count + 1}, count + 1, windowStart
}
