package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// ErrQueueClosed la cola ya no acepta comandos.
var ErrQueueClosed = errors.New("command queue closed")

// Queue cola acotada en proceso drenada por un pool de workers. El comando ya está
// persistido antes de encolarse; si el proceso cae, Recover lo vuelve a encolar.
type Queue struct {
	proc    *Processor
	store   repository.DocumentStore
	ids     chan string
	workers int
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue construye la cola; Start lanza los workers.
func NewQueue(proc *Processor, store repository.DocumentStore, workers, size int, log zerolog.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	return &Queue{
		proc:    proc,
		store:   store,
		ids:     make(chan string, size),
		workers: workers,
		log:     log.With().Str("component", "command_queue").Logger(),
	}
}

// Start lanza los workers. ctx es el contexto base de procesamiento.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(id int) {
			defer q.wg.Done()
			q.workerLoop(ctx, id)
		}(i)
	}
	q.log.Info().Int("workers", q.workers).Msg("workers de comandos iniciados")
}

func (q *Queue) workerLoop(ctx context.Context, id int) {
	for commandID := range q.ids {
		if err := q.proc.Process(ctx, commandID); err != nil {
			q.log.Warn().Err(err).Int("worker", id).Str("command_id", commandID).Msg("comando con error")
		}
	}
}

// Enqueue entrega el id a los workers; bloquea si la cola está llena.
func (q *Queue) Enqueue(ctx context.Context, commandID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ids <- commandID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recover re-encola los comandos pendientes (sin anotación de error) del buzón.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	docs, err := q.store.List(ctx, entity.CollectionCommands, 0)
	if err != nil {
		return 0, fmt.Errorf("recover commands: %w", err)
	}
	n := 0
	for _, d := range docs {
		var cmd entity.Command
		if err := d.Decode(&cmd); err != nil {
			q.log.Warn().Err(err).Str("path", d.Path).Msg("comando ilegible")
			continue
		}
		if cmd.Failed() {
			continue
		}
		id := cmd.CommandID
		if id == "" {
			id = d.Path[len(entity.CollectionCommands)+1:]
		}
		if err := q.Enqueue(ctx, id); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close deja de aceptar comandos, drena los encolados y espera a los workers.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ids)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
