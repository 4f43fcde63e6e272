// Package audit registra las acciones que cambian estado en el log append-only.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

// Log escritor del registro de auditoría. Las entradas se crean con id nuevo y nunca
// se actualizan ni se borran.
type Log struct {
	store repository.DocumentWriter
	now   func() time.Time
}

// NewLog construye el escritor.
func NewLog(store repository.DocumentWriter) *Log {
	return &Log{store: store, now: time.Now}
}

// Record asigna id y fecha a la entrada y la persiste con create-if-absent.
func (l *Log) Record(ctx context.Context, e entity.AuditLogEntry) (string, error) {
	if e.Kind == "" {
		return "", fmt.Errorf("audit: kind vacío")
	}
	e.ID = uuid.New().String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	if err := l.store.Create(ctx, entity.AuditLogPath(e.ID), e); err != nil {
		return "", fmt.Errorf("audit %s: %w", e.Kind, err)
	}
	return e.ID, nil
}

// Result atajo para construir el resultado de una entrada.
func Result(success bool, message string) *entity.AuditResult {
	return &entity.AuditResult{Success: success, Message: message}
}
