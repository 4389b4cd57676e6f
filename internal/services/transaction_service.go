package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

const (
	msgTransactionNotFound = "Not found"
	msgTransactionScope    = "Forbidden"

	overviewTTL  = 5 * time.Minute
	overviewSize = 256

	overviewKeyspace = "overview:"
)

// TransactionInput is the body of a transaction create. Amount and Date
// are nil when absent.
type TransactionInput struct {
	// UserID selects the owner; honored only for administrators.
	UserID      *int64
	CategoryID  int64
	TypeID      int64
	Amount      *decimal.Decimal
	Date        *time.Time
	Description string
}

// TransactionPatch holds the fields present in an update with the right
// type. Zero values are valid updates.
type TransactionPatch struct {
	CategoryID  *int64
	TypeID      *int64
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
}

func (p TransactionPatch) empty() bool {
	return p.CategoryID == nil && p.TypeID == nil && p.Amount == nil && p.Date == nil && p.Description == nil
}

// TransactionService owns transaction CRUD and the monthly overview. After
// each committed write it publishes an activity event; publish failures are
// logged and never fail the request.
type TransactionService struct {
	store      TransactionStore
	categories CategoryStore
	publisher  Publisher
	overviews  *cache.LRUCache[core.MonthOverview]
	loader     *cache.Loader[core.MonthOverview]
	logger     *applog.Logger
	events     *applog.StructuredLogger
	now        func() time.Time
}

func NewTransactionService(store TransactionStore, categories CategoryStore, publisher Publisher, logger *applog.Logger) *TransactionService {
	overviews := cache.NewLRUCache[core.MonthOverview](overviewSize, overviewTTL)
	logger = logger.WithComponent(applog.ComponentTransaction)
	return &TransactionService{
		store:      store,
		categories: categories,
		publisher:  publisher,
		overviews:  overviews,
		loader:     cache.NewLoader[core.MonthOverview](overviews),
		logger:     logger,
		events:     applog.NewStructuredLogger(logger),
		now:        time.Now,
	}
}

// Cache exposes the overview cache for periodic cleanup and metrics.
func (s *TransactionService) Cache() *cache.LRUCache[core.MonthOverview] {
	return s.overviews
}

// listScope returns the owner filter for listings; 0 means every owner.
// Users are always limited to themselves.
func listScope(id core.Identity, target *int64) int64 {
	if !id.IsAdmin() {
		return id.UserID
	}
	if target != nil {
		return *target
	}
	return 0
}

// List returns transactions newest first, joined with category and type.
func (s *TransactionService) List(ctx context.Context, page core.Page, targetUserID *int64) (core.PageResult[core.TransactionDetail], error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.PageResult[core.TransactionDetail]{}, err
	}
	items, total, err := s.store.ListTransactions(ctx, listScope(id, targetUserID), page)
	if err != nil {
		return core.PageResult[core.TransactionDetail]{}, storeErr("list transactions", err)
	}
	return core.PageResult[core.TransactionDetail]{Items: items, Total: total}, nil
}

func (s *TransactionService) Get(ctx context.Context, txID int64) (core.TransactionDetail, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.TransactionDetail{}, err
	}
	return s.load(ctx, id, txID)
}

func (s *TransactionService) load(ctx context.Context, id core.Identity, txID int64) (core.TransactionDetail, error) {
	t, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return core.TransactionDetail{}, notFoundOr("get transaction", msgTransactionNotFound, err)
	}
	if !core.CanAccess(id, t.UserID) {
		return core.TransactionDetail{}, core.Forbidden(msgTransactionScope)
	}
	return t, nil
}

// Create stores a transaction owned by the caller, or by in.UserID when
// the caller is an administrator.
func (s *TransactionService) Create(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if in.CategoryID == 0 || in.TypeID == 0 || in.Amount == nil {
		return core.Transaction{}, core.Invalid("categoryId, typeId, amount are required")
	}

	owner := id.UserID
	if id.IsAdmin() && in.UserID != nil {
		owner = *in.UserID
	}
	date := s.now().UTC()
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	t := core.Transaction{
		UserID:      owner,
		CategoryID:  in.CategoryID,
		TypeID:      in.TypeID,
		Amount:      *in.Amount,
		Date:        date,
		Description: in.Description,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, owner, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, writeErr("create transaction", err)
	}

	s.afterWrite(ctx, id, core.ActivityTransactionCreated, applog.OpCreate, created)
	return created, nil
}

// Update applies the fields present in p. An empty patch returns the
// stored transaction unchanged.
func (s *TransactionService) Update(ctx context.Context, txID int64, p TransactionPatch) (core.Transaction, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	existing, err := s.load(ctx, id, txID)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.empty() {
		return existing.Transaction, nil
	}

	next := existing.Transaction
	if p.CategoryID != nil {
		next.CategoryID = *p.CategoryID
		if next.CategoryID != existing.CategoryID {
			if err := s.checkCategory(ctx, next.UserID, next.CategoryID); err != nil {
				return core.Transaction{}, err
			}
		}
	}
	if p.TypeID != nil {
		next.TypeID = *p.TypeID
	}
	if p.Amount != nil {
		next.Amount = *p.Amount
	}
	if p.Date != nil {
		next.Date = p.Date.UTC()
	}
	if p.Description != nil {
		next.Description = *p.Description
	}

	updated, err := s.store.UpdateTransaction(ctx, next)
	if err != nil {
		return core.Transaction{}, writeErr("update transaction", err)
	}

	s.afterWrite(ctx, id, core.ActivityTransactionUpdated, applog.OpUpdate, updated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, txID int64) error {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return err
	}
	existing, err := s.load(ctx, id, txID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, existing.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound(msgTransactionNotFound)
		}
		return storeErr("delete transaction", err)
	}

	s.afterWrite(ctx, id, core.ActivityTransactionDeleted, applog.OpDelete, existing.Transaction)
	return nil
}

// Owned returns every transaction of the caller ordered by id, for export.
func (s *TransactionService) Owned(ctx context.Context) ([]core.Transaction, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListOwnedTransactions(ctx, id.UserID)
	if err != nil {
		return nil, storeErr("list owned transactions", err)
	}
	return txs, nil
}

// Overview aggregates one month of transactions per type and category,
// with the same visibility rules as List.
func (s *TransactionService) Overview(ctx context.Context, year, month int, targetUserID *int64) (core.MonthOverview, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.MonthOverview{}, err
	}
	if month < 1 || month > 12 {
		return core.MonthOverview{}, core.Invalid("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return core.MonthOverview{}, core.Invalid("year is out of range")
	}

	scope := listScope(id, targetUserID)
	key := fmt.Sprintf("%s%04d-%02d", overviewPrefix(scope), year, month)
	ov, err := s.loader.Get(key, func() (core.MonthOverview, error) {
		from, to := core.MonthBounds(year, month)
		txs, err := s.store.ListTransactionsBetween(ctx, scope, from, to)
		if err != nil {
			return core.MonthOverview{}, err
		}
		return core.BuildMonthOverview(year, month, txs), nil
	})
	if err != nil {
		return core.MonthOverview{}, storeErr("build overview", err)
	}
	return ov, nil
}

func overviewPrefix(scope int64) string {
	if scope == 0 {
		return overviewKeyspace + "all:"
	}
	return overviewKeyspace + strconv.FormatInt(scope, 10) + ":"
}

// ForgetOverviews drops cached overviews that include owner's data. Owner
// 0 drops every overview.
func (s *TransactionService) ForgetOverviews(owner int64) {
	if owner == 0 {
		s.loader.ForgetPrefix(overviewKeyspace)
		return
	}
	s.loader.ForgetPrefix(overviewPrefix(owner))
	s.loader.ForgetPrefix(overviewPrefix(0))
}

// checkCategory rejects categories that do not exist or that belong to
// someone other than owner.
func (s *TransactionService) checkCategory(ctx context.Context, owner, categoryID int64) error {
	c, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Invalid("category does not exist")
		}
		return storeErr("get category", err)
	}
	if c.UserID != owner {
		return core.Invalid("category does not belong to the transaction owner")
	}
	return nil
}

func (s *TransactionService) afterWrite(ctx context.Context, actor core.Identity, kind core.ActivityKind, op string, t core.Transaction) {
	s.ForgetOverviews(t.UserID)
	s.events.LogTransactionWritten(ctx, op, t.ID, t.UserID, t.CategoryID, t.TypeID, t.Amount.String())

	event := amqp.NewActivityEvent(kind, actor.UserID, t.UserID)
	event.TransactionID = t.ID
	s.publish(ctx, event)
}

func (s *TransactionService) publish(ctx context.Context, event *amqp.ActivityEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping activity event",
			applog.FieldEventKind, event.Kind)
		return
	}
	if err := s.publisher.PublishActivity(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish activity event",
			applog.FieldEventKind, event.Kind,
			applog.FieldUserID, event.OwnerID,
			applog.FieldError, err.Error())
	}
}

// writeErr maps constraint failures on transaction writes. A dangling
// category, type or owner reference is a client error.
func writeErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrForeignKeyViolation):
		return core.Invalid("unknown category, type or owner")
	case errors.Is(err, storage.ErrNotFound):
		return core.NotFound(msgTransactionNotFound)
	}
	return storeErr(op, err)
}
