package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/reservas-api/internal/application/ports"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
	"github.com/jhoicas/reservas-api/internal/domain/repository"
)

var _ ports.NotificationSink = (*StoreSink)(nil)

// StoreSink escribe la notificación como documento en notifications/{userId}/messages/{id}.
type StoreSink struct {
	store repository.DocumentWriter
}

// NewStoreSink construye el sink.
func NewStoreSink(store repository.DocumentWriter) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Send(ctx context.Context, userID string, n entity.Notification) error {
	path := entity.NotificationsCollection(userID) + "/" + uuid.New().String()
	if err := s.store.Create(ctx, path, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}
