package services

import (
	"context"
	"errors"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/storage"
)

// Store interfaces are satisfied by *storage.SQLiteRepository.

type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	UpdateUser(ctx context.Context, u core.User) (core.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context, userID int64, page core.Page) ([]core.Category, int64, error)
	AllCategories(ctx context.Context, userID int64) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	CategoryMachineNameExists(ctx context.Context, userID int64, machineName string, excludeID int64) (bool, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CountCategoryTransactions(ctx context.Context, categoryID int64) (int64, error)
}

type TypeStore interface {
	ListTransactionTypes(ctx context.Context) ([]core.TransactionType, error)
	GetTransactionType(ctx context.Context, id int64) (core.TransactionType, error)
	TransactionTypeMachineNameExists(ctx context.Context, machineName string, excludeID int64) (bool, error)
	CreateTransactionType(ctx context.Context, t core.TransactionType) (core.TransactionType, error)
	UpdateTransactionType(ctx context.Context, t core.TransactionType) (core.TransactionType, error)
	DeleteTransactionType(ctx context.Context, id int64) error
	CountTypeTransactions(ctx context.Context, typeID int64) (int64, error)
}

type TransactionStore interface {
	ListTransactions(ctx context.Context, ownerID int64, page core.Page) ([]core.TransactionDetail, int64, error)
	ListTransactionsBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]core.TransactionDetail, error)
	ListOwnedTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.TransactionDetail, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

type ActivityStore interface {
	RecordActivity(ctx context.Context, a core.Activity) (bool, error)
	ListActivity(ctx context.Context, page core.Page) ([]core.Activity, int64, error)
}

// Publisher sends activity events. A nil Publisher disables events.
type Publisher interface {
	PublishActivity(ctx context.Context, event *amqp.ActivityEvent) error
}

// OverviewForgetter drops cached month overviews for one owner, or for
// everyone when owner is 0. Writes that change what an overview reports
// outside the transaction table call it.
type OverviewForgetter interface {
	ForgetOverviews(owner int64)
}

var (
	_ UserStore        = (*storage.SQLiteRepository)(nil)
	_ CategoryStore    = (*storage.SQLiteRepository)(nil)
	_ TypeStore        = (*storage.SQLiteRepository)(nil)
	_ TransactionStore = (*storage.SQLiteRepository)(nil)
	_ ActivityStore    = (*storage.SQLiteRepository)(nil)
	_ Publisher        = (*amqp.Client)(nil)

	_ OverviewForgetter = (*TransactionService)(nil)
)

// storeErr turns an unexpected store error into a StoreFailure. Expected
// outcomes (not found, constraint violations) are mapped by callers first.
func storeErr(op string, err error) error {
	if core.IsKnown(err) {
		return err
	}
	return core.StoreFailure(op, err)
}

// notFoundOr maps storage.ErrNotFound to a NotFound with msg.
func notFoundOr(op, msg string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return core.NotFound(msg)
	}
	return storeErr(op, err)
}

// forgetOverviews is a nil-safe OverviewForgetter call.
func forgetOverviews(f OverviewForgetter, owner int64) {
	if f != nil {
		f.ForgetOverviews(owner)
	}
}
