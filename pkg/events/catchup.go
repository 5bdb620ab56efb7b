package events

import (
	"context"

	"github.com/codeready-toolchain/remedy/pkg/models"
)

// eventReader is the slice of the event store the catchup path needs.
// Implemented by *database.EventStore.
type eventReader interface {
	EventsSince(ctx context.Context, channel string, sinceID int64, limit int) ([]*models.Event, error)
}

// StoreCatchupQuerier adapts the event store to CatchupQuerier.
type StoreCatchupQuerier struct {
	store eventReader
}

// NewStoreCatchupQuerier creates a CatchupQuerier backed by the event store.
func NewStoreCatchupQuerier(store eventReader) *StoreCatchupQuerier {
	return &StoreCatchupQuerier{store: store}
}

// GetCatchupEvents returns events on channel with ID greater than sinceID,
// oldest first, up to limit.
func (q *StoreCatchupQuerier) GetCatchupEvents(ctx context.Context, channel string, sinceID int64, limit int) ([]CatchupEvent, error) {
	events, err := q.store.EventsSince(ctx, channel, sinceID, limit)
	if err != nil {
		return nil, err
	}

	result := make([]CatchupEvent, len(events))
	for i, evt := range events {
		result[i] = CatchupEvent{
			ID:      evt.ID,
			Payload: evt.Payload,
		}
	}
	return result, nil
}
