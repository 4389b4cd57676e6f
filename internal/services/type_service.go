package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/slug"
	"ledger/internal/storage"
)

const (
	msgTypeNotFound = "Type not found"
	msgTypeInUse    = "Cannot delete transaction type because it is linked to transactions."

	catalogKey = "transaction-types"
	catalogTTL = 10 * time.Minute
)

// TypePolicy controls the create and delete behavior of the global type
// catalog.
type TypePolicy struct {
	// SuffixOnCreate resolves a taken machine name on create the same way
	// update does. When false a taken name fails with Conflict.
	SuffixOnCreate bool
	// DeleteGuard refuses to delete a type referenced by transactions.
	DeleteGuard bool
	MaxAttempts int
}

type TypeInput struct {
	Name        string
	MachineName string
}

type TypePatch struct {
	Name        *string
	MachineName *string
}

// TypeService manages the process-wide transaction type catalog. Reads are
// public; writes require an administrator.
type TypeService struct {
	store   TypeStore
	policy  TypePolicy
	catalog *cache.Loader[[]core.TransactionType]
	lru     *cache.LRUCache[[]core.TransactionType]
	logger  *applog.Logger

	// overviews carry type machine names.
	overviews OverviewForgetter
}

func NewTypeService(store TypeStore, policy TypePolicy, logger *applog.Logger) *TypeService {
	lru := cache.NewLRUCache[[]core.TransactionType](1, catalogTTL)
	return &TypeService{
		store:   store,
		policy:  policy,
		catalog: cache.NewLoader[[]core.TransactionType](lru),
		lru:     lru,
		logger:  logger.WithComponent(applog.ComponentType),
	}
}

// Cache exposes the catalog cache for periodic cleanup and metrics.
func (s *TypeService) Cache() *cache.LRUCache[[]core.TransactionType] {
	return s.lru
}

// List returns every type ordered by id. Concurrent cold loads share one
// store query.
func (s *TypeService) List(ctx context.Context) ([]core.TransactionType, error) {
	types, err := s.catalog.Get(catalogKey, func() ([]core.TransactionType, error) {
		return s.store.ListTransactionTypes(ctx)
	})
	if err != nil {
		return nil, storeErr("list transaction types", err)
	}
	return append([]core.TransactionType(nil), types...), nil
}

func (s *TypeService) Get(ctx context.Context, typeID int64) (core.TransactionType, error) {
	t, err := s.store.GetTransactionType(ctx, typeID)
	if err != nil {
		return core.TransactionType{}, notFoundOr("get transaction type", msgTypeNotFound, err)
	}
	return t, nil
}

func (s *TypeService) Create(ctx context.Context, in TypeInput) (core.TransactionType, error) {
	if _, err := core.RequireAdmin(ctx); err != nil {
		return core.TransactionType{}, err
	}

	t := core.TransactionType{
		Name:        strings.TrimSpace(in.Name),
		MachineName: strings.TrimSpace(in.MachineName),
	}
	if err := t.Validate(); err != nil {
		return core.TransactionType{}, err
	}

	var created core.TransactionType
	persist := func(ctx context.Context, name string) error {
		t.MachineName = name
		var err error
		created, err = s.store.CreateTransactionType(ctx, t)
		return takenOr(err)
	}

	var err error
	if s.policy.SuffixOnCreate {
		_, err = slug.CreateUnique(ctx, t.MachineName, s.existsFunc(0), persist, s.policy.MaxAttempts)
	} else {
		err = persist(ctx, t.MachineName)
	}
	if err != nil {
		return core.TransactionType{}, s.writeErr("create transaction type", err)
	}

	s.invalidate()
	s.logger.InfoContext(ctx, "Transaction type created",
		applog.FieldTypeID, created.ID,
		applog.FieldMachineName, created.MachineName)
	return created, nil
}

// Update applies the present, non-blank fields of p. The machine name is
// re-resolved against the catalog excluding the type itself.
func (s *TypeService) Update(ctx context.Context, typeID int64, p TypePatch) (core.TransactionType, error) {
	if _, err := core.RequireAdmin(ctx); err != nil {
		return core.TransactionType{}, err
	}
	existing, err := s.Get(ctx, typeID)
	if err != nil {
		return core.TransactionType{}, err
	}

	next := existing
	changed := false
	if v, ok := nonBlank(p.Name); ok {
		next.Name = v
		changed = true
	}
	machineName, renamed := nonBlank(p.MachineName)
	if !changed && !renamed {
		return existing, nil
	}

	persist := func(ctx context.Context, name string) error {
		next.MachineName = name
		updated, err := s.store.UpdateTransactionType(ctx, next)
		if err == nil {
			next = updated
		}
		return takenOr(err)
	}
	if renamed {
		_, err = slug.CreateUnique(ctx, machineName, s.existsFunc(existing.ID), persist, s.policy.MaxAttempts)
	} else {
		err = persist(ctx, existing.MachineName)
	}
	if err != nil {
		return core.TransactionType{}, s.writeErr("update transaction type", err)
	}

	s.invalidate()
	forgetOverviews(s.overviews, 0)
	s.logger.InfoContext(ctx, "Transaction type updated",
		applog.FieldTypeID, next.ID,
		applog.FieldMachineName, next.MachineName)
	return next, nil
}

func (s *TypeService) Delete(ctx context.Context, typeID int64) error {
	if _, err := core.RequireAdmin(ctx); err != nil {
		return err
	}
	if _, err := s.Get(ctx, typeID); err != nil {
		return err
	}

	if s.policy.DeleteGuard {
		n, err := s.store.CountTypeTransactions(ctx, typeID)
		if err != nil {
			return storeErr("count type transactions", err)
		}
		if n > 0 {
			return core.Conflict(msgTypeInUse)
		}
	}

	if err := s.store.DeleteTransactionType(ctx, typeID); err != nil {
		switch {
		case errors.Is(err, storage.ErrForeignKeyViolation):
			return core.Conflict(msgTypeInUse)
		case errors.Is(err, storage.ErrNotFound):
			return core.NotFound(msgTypeNotFound)
		}
		return storeErr("delete transaction type", err)
	}

	s.invalidate()
	forgetOverviews(s.overviews, 0)
	s.logger.InfoContext(ctx, "Transaction type deleted", applog.FieldTypeID, typeID)
	return nil
}

func (s *TypeService) invalidate() {
	s.catalog.Forget(catalogKey)
}

func (s *TypeService) existsFunc(excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.store.TransactionTypeMachineNameExists(ctx, candidate, excludeID)
	}
}

func (s *TypeService) writeErr(op string, err error) error {
	switch {
	case errors.Is(err, slug.ErrTaken):
		return core.Conflict("machineName is already in use")
	case errors.Is(err, storage.ErrNotFound):
		return core.NotFound(msgTypeNotFound)
	}
	return storeErr(op, err)
}
