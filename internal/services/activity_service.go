package services

import (
	"context"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// ActivityService reads the audit trail and stores events delivered by
// the activity worker.
type ActivityService struct {
	store  ActivityStore
	logger *applog.Logger
}

func NewActivityService(store ActivityStore, logger *applog.Logger) *ActivityService {
	return &ActivityService{store: store, logger: logger.WithComponent(applog.ComponentWorker)}
}

// List returns recorded activity newest first. Administrators only.
func (s *ActivityService) List(ctx context.Context, page core.Page) (core.PageResult[core.Activity], error) {
	if _, err := core.RequireAdmin(ctx); err != nil {
		return core.PageResult[core.Activity]{}, err
	}
	items, total, err := s.store.ListActivity(ctx, page)
	if err != nil {
		return core.PageResult[core.Activity]{}, storeErr("list activity", err)
	}
	return core.PageResult[core.Activity]{Items: items, Total: total}, nil
}

// Record stores event. Redelivered events are ignored.
func (s *ActivityService) Record(ctx context.Context, event *amqp.ActivityEvent) error {
	stored, err := s.store.RecordActivity(ctx, event.Activity())
	if err != nil {
		return storeErr("record activity", err)
	}
	if !stored {
		s.logger.DebugContext(ctx, "Duplicate activity event ignored", "event_id", event.EventID)
		return nil
	}
	s.logger.InfoContext(ctx, "Activity recorded",
		applog.FieldEventKind, string(event.Kind),
		applog.FieldActorID, event.ActorID,
		applog.FieldUserID, event.OwnerID)
	return nil
}
