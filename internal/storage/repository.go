package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

const dsnPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + dsnPragmas
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         string(u.Role),
		CreatedAt:    formatTime(time.Now()),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", classify(err))
	}
	slog.InfoContext(ctx, "User saved to SQLite", "id", row.ID, "role", row.Role)
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, classify(err))
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", classify(err))
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", classify(err))
	}
	users := make([]core.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUser(row))
	}
	return users, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row, err := r.queries.UpdateUser(ctx, UpdateUserParams{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Role:         string(u.Role),
		ID:           u.ID,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, classify(err))
	}
	return toUser(row), nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
	}
	return nil
}

// Categories

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64, page core.Page) ([]core.Category, int64, error) {
	rows, err := r.queries.ListCategoriesByUser(ctx, ListCategoriesByUserParams{
		UserID: userID,
		Limit:  int64(page.Take),
		Offset: int64(page.Skip),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", classify(err))
	}
	total, err := r.queries.CountCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", classify(err))
	}
	return toCategories(rows), total, nil
}

func (r *SQLiteRepository) AllCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.queries.AllCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", classify(err))
	}
	return toCategories(rows), nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, classify(err))
	}
	return toCategory(row), nil
}

func (r *SQLiteRepository) CategoryMachineNameExists(ctx context.Context, userID int64, machineName string, excludeID int64) (bool, error) {
	exists, err := r.queries.CategoryMachineNameExists(ctx, CategoryMachineNameExistsParams{
		UserID:      userID,
		MachineName: machineName,
		ExcludeID:   excludeID,
	})
	if err != nil {
		return false, fmt.Errorf("probe category machine name: %w", classify(err))
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.CreateCategory(ctx, CreateCategoryParams{
		Name:        c.Name,
		MachineName: c.MachineName,
		UserID:      c.UserID,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", classify(err))
	}
	slog.InfoContext(ctx, "Category saved to SQLite",
		"id", row.ID,
		"machine_name", row.MachineName,
		"user_id", row.UserID)
	return toCategory(row), nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.UpdateCategory(ctx, UpdateCategoryParams{
		Name:        c.Name,
		MachineName: c.MachineName,
		ID:          c.ID,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, classify(err))
	}
	return toCategory(row), nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("delete category %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CountCategoryTransactions(ctx context.Context, categoryID int64) (int64, error) {
	n, err := r.queries.CountTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", classify(err))
	}
	return n, nil
}

// Transaction types

func (r *SQLiteRepository) ListTransactionTypes(ctx context.Context) ([]core.TransactionType, error) {
	rows, err := r.queries.ListTransactionTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transaction types: %w", classify(err))
	}
	types := make([]core.TransactionType, 0, len(rows))
	for _, row := range rows {
		types = append(types, toTransactionType(row))
	}
	return types, nil
}

func (r *SQLiteRepository) GetTransactionType(ctx context.Context, id int64) (core.TransactionType, error) {
	row, err := r.queries.GetTransactionType(ctx, id)
	if err != nil {
		return core.TransactionType{}, fmt.Errorf("get transaction type %d: %w", id, classify(err))
	}
	return toTransactionType(row), nil
}

func (r *SQLiteRepository) TransactionTypeMachineNameExists(ctx context.Context, machineName string, excludeID int64) (bool, error) {
	exists, err := r.queries.TransactionTypeMachineNameExists(ctx, TransactionTypeMachineNameExistsParams{
		MachineName: machineName,
		ExcludeID:   excludeID,
	})
	if err != nil {
		return false, fmt.Errorf("probe transaction type machine name: %w", classify(err))
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateTransactionType(ctx context.Context, t core.TransactionType) (core.TransactionType, error) {
	row, err := r.queries.CreateTransactionType(ctx, CreateTransactionTypeParams{
		Name:        t.Name,
		MachineName: t.MachineName,
	})
	if err != nil {
		return core.TransactionType{}, fmt.Errorf("create transaction type: %w", classify(err))
	}
	slog.InfoContext(ctx, "Transaction type saved to SQLite", "id", row.ID, "machine_name", row.MachineName)
	return toTransactionType(row), nil
}

func (r *SQLiteRepository) UpdateTransactionType(ctx context.Context, t core.TransactionType) (core.TransactionType, error) {
	row, err := r.queries.UpdateTransactionType(ctx, UpdateTransactionTypeParams{
		Name:        t.Name,
		MachineName: t.MachineName,
		ID:          t.ID,
	})
	if err != nil {
		return core.TransactionType{}, fmt.Errorf("update transaction type %d: %w", t.ID, classify(err))
	}
	return toTransactionType(row), nil
}

func (r *SQLiteRepository) DeleteTransactionType(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransactionType(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction type %d: %w", id, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("delete transaction type %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CountTypeTransactions(ctx context.Context, typeID int64) (int64, error) {
	n, err := r.queries.CountTransactionsByType(ctx, typeID)
	if err != nil {
		return 0, fmt.Errorf("count type transactions: %w", classify(err))
	}
	return n, nil
}

// Transactions

// ListTransactions returns a newest-first page. ownerID 0 lists every owner.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, page core.Page) ([]core.TransactionDetail, int64, error) {
	rows, err := r.queries.ListTransactionRows(ctx, ListTransactionRowsParams{
		OwnerID: ownerID,
		Limit:   int64(page.Take),
		Offset:  int64(page.Skip),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", classify(err))
	}
	total, err := r.queries.CountTransactions(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", classify(err))
	}
	details, err := toTransactionDetails(rows)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// ListTransactionsBetween returns transactions dated in [from, to).
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]core.TransactionDetail, error) {
	rows, err := r.queries.ListTransactionRowsBetween(ctx, ListTransactionRowsBetweenParams{
		OwnerID: ownerID,
		From:    formatTime(from),
		To:      formatTime(to),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", classify(err))
	}
	return toTransactionDetails(rows)
}

// ListOwnedTransactions returns every transaction of userID ordered by id.
func (r *SQLiteRepository) ListOwnedTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned transactions: %w", classify(err))
	}
	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.TransactionDetail, error) {
	row, err := r.queries.GetTransactionRow(ctx, id)
	if err != nil {
		return core.TransactionDetail{}, fmt.Errorf("get transaction %d: %w", id, classify(err))
	}
	return toTransactionDetail(row)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row, err := r.queries.CreateTransaction(ctx, createTransactionParams(t))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", classify(err))
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"category_id", row.CategoryID,
		"type_id", row.TypeID,
		"amount", row.Amount)
	return toTransaction(row)
}

// CreateTransactions inserts all of txs in one database transaction.
// Either every row is written or none is.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	created := make([]core.Transaction, 0, len(txs))
	for i, t := range txs {
		row, err := q.CreateTransaction(ctx, createTransactionParams(t))
		if err != nil {
			return nil, fmt.Errorf("bulk insert row %d: %w", i, classify(err))
		}
		ct, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		created = append(created, ct)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	slog.InfoContext(ctx, "Transactions bulk saved to SQLite", "count", len(created))
	return created, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		CategoryID:  t.CategoryID,
		TypeID:      t.TypeID,
		Amount:      t.Amount.String(),
		Date:        formatTime(t.Date),
		Description: t.Description,
		ID:          t.ID,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, classify(err))
	}
	return toTransaction(row)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, classify(err))
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

// Activity

// RecordActivity stores a; it reports false when the event was already recorded.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, a core.Activity) (bool, error) {
	var txID, batchID interface{}
	if a.TransactionID > 0 {
		txID = a.TransactionID
	}
	if a.BatchID != "" {
		batchID = a.BatchID
	}
	n, err := r.queries.InsertActivity(ctx, InsertActivityParams{
		EventID:       a.EventID,
		Kind:          string(a.Kind),
		ActorID:       a.ActorID,
		OwnerID:       a.OwnerID,
		TransactionID: txID,
		BatchID:       batchID,
		ItemCount:     int64(a.Count),
		OccurredAt:    formatTime(a.OccurredAt),
		RecordedAt:    formatTime(time.Now()),
	})
	if err != nil {
		return false, fmt.Errorf("record activity: %w", classify(err))
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListActivity(ctx context.Context, page core.Page) ([]core.Activity, int64, error) {
	rows, err := r.queries.ListActivity(ctx, ListActivityParams{Limit: int64(page.Take), Offset: int64(page.Skip)})
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", classify(err))
	}
	total, err := r.queries.CountActivity(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", classify(err))
	}
	items := make([]core.Activity, 0, len(rows))
	for _, row := range rows {
		items = append(items, core.Activity{
			ID:            row.ID,
			EventID:       row.EventID,
			Kind:          core.ActivityKind(row.Kind),
			ActorID:       row.ActorID,
			OwnerID:       row.OwnerID,
			TransactionID: row.TransactionID.Int64,
			BatchID:       row.BatchID.String,
			Count:         int(row.ItemCount),
			OccurredAt:    parseTime(row.OccurredAt),
			RecordedAt:    parseTime(row.RecordedAt),
		})
	}
	return items, total, nil
}

// Row conversions

func formatTime(t time.Time) string { return core.FormatTimestamp(t) }

func parseTime(s string) time.Time {
	if t, err := time.Parse(core.TimestampLayout, s); err == nil {
		return t
	}
	t, _ := core.ParseDate(s)
	return t
}

func createTransactionParams(t core.Transaction) CreateTransactionParams {
	return CreateTransactionParams{
		UserID:      t.UserID,
		CategoryID:  t.CategoryID,
		TypeID:      t.TypeID,
		Amount:      t.Amount.String(),
		Date:        formatTime(t.Date),
		Description: t.Description,
	}
}

func toUser(row User) core.User {
	return core.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Role:         core.Role(row.Role),
		PasswordHash: row.PasswordHash,
		CreatedAt:    parseTime(row.CreatedAt),
	}
}

func toCategory(row Category) core.Category {
	return core.Category{ID: row.ID, Name: row.Name, MachineName: row.MachineName, UserID: row.UserID}
}

func toCategories(rows []Category) []core.Category {
	cats := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, toCategory(row))
	}
	return cats
}

func toTransactionType(row TransactionType) core.TransactionType {
	return core.TransactionType{ID: row.ID, Name: row.Name, MachineName: row.MachineName}
}

func toTransaction(row Transaction) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: stored amount %q: %w", row.ID, row.Amount, err)
	}
	return core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		CategoryID:  row.CategoryID,
		TypeID:      row.TypeID,
		Amount:      amount,
		Date:        parseTime(row.Date),
		Description: row.Description,
	}, nil
}

func toTransactionDetail(row TransactionRow) (core.TransactionDetail, error) {
	t, err := toTransaction(row.Transaction)
	if err != nil {
		return core.TransactionDetail{}, err
	}
	return core.TransactionDetail{
		Transaction: t,
		Category:    toCategory(row.Category),
		Type:        toTransactionType(row.Type),
	}, nil
}

func toTransactionDetails(rows []TransactionRow) ([]core.TransactionDetail, error) {
	details := make([]core.TransactionDetail, 0, len(rows))
	for _, row := range rows {
		d, err := toTransactionDetail(row)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}
