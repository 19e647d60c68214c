package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/messaging"
)

// Event types published after a committed mutation.
const (
	EventCreated       = "order.created"
	EventUpdated       = "order.updated"
	EventFinalized     = "order.finalized"
	EventStatusChanged = "order.status_changed"
	EventDeleted       = "order.deleted"
)

// Event is the payload of every order event.
type Event struct {
	Type           string    `json:"type"`
	ID             int64     `json:"id"`
	Number         string    `json:"number,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	IsTemporary    bool      `json:"is_temporary"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func newEvent(kind string, order *entity.Order, at time.Time) Event {
	return Event{
		Type:        kind,
		ID:          order.ID,
		Number:      order.Number(),
		Status:      string(order.Status),
		IsTemporary: order.IsTemporary,
		OccurredAt:  at,
	}
}

func (s *Service) publish(ctx context.Context, events ...Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal order event", zap.String("type", event.Type), zap.Error(err))
			continue
		}
		key := []byte(fmt.Sprintf("order-%d", event.ID))
		headers := map[string]string{messaging.HeaderEventType: event.Type}
		if err := s.publisher.Publish(ctx, key, payload, headers); err != nil {
			s.logger.Error("publish order event",
				zap.String("type", event.Type),
				zap.Int64("id", event.ID),
				zap.Error(err),
			)
		}
	}
}
