package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `t.id, t.user_id, t.category_id, t.type_id, t.amount, t.date, t.description`

const joinedColumns = transactionColumns + `,
    c.id, c.name, c.machine_name, c.user_id,
    tt.id, tt.name, tt.machine_name`

const joinedFrom = `
FROM transactions t
JOIN categories c ON c.id = t.category_id
JOIN transaction_types tt ON tt.id = t.type_id
`

const createTransaction = `
INSERT INTO transactions (user_id, category_id, type_id, amount, date, description)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, category_id, type_id, amount, date, description
`

type CreateTransactionParams struct {
	UserID      int64
	CategoryID  int64
	TypeID      int64
	Amount      string
	Date        string
	Description string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID, arg.CategoryID, arg.TypeID, arg.Amount, arg.Date, arg.Description)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.CategoryID, &i.TypeID, &i.Amount, &i.Date, &i.Description)
	return i, err
}

const getTransactionRow = `SELECT ` + joinedColumns + joinedFrom + `WHERE t.id = ?`

func (q *Queries) GetTransactionRow(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransactionRow, id)
	return scanTransactionRow(row)
}

// ownerID 0 selects every owner.
const listTransactionRows = `SELECT ` + joinedColumns + joinedFrom + `
WHERE (? = 0 OR t.user_id = ?)
ORDER BY t.id DESC
LIMIT ? OFFSET ?
`

type ListTransactionRowsParams struct {
	OwnerID int64
	Limit   int64
	Offset  int64
}

func (q *Queries) ListTransactionRows(ctx context.Context, arg ListTransactionRowsParams) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionRows, arg.OwnerID, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanTransactionRows(rows)
}

const countTransactions = `
SELECT COUNT(*) FROM transactions WHERE (? = 0 OR user_id = ?)
`

func (q *Queries) CountTransactions(ctx context.Context, ownerID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactions, ownerID, ownerID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listTransactionRowsBetween = `SELECT ` + joinedColumns + joinedFrom + `
WHERE (? = 0 OR t.user_id = ?) AND t.date >= ? AND t.date < ?
ORDER BY t.date ASC, t.id ASC
`

type ListTransactionRowsBetweenParams struct {
	OwnerID int64
	From    string
	To      string
}

func (q *Queries) ListTransactionRowsBetween(ctx context.Context, arg ListTransactionRowsBetweenParams) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionRowsBetween, arg.OwnerID, arg.OwnerID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	return scanTransactionRows(rows)
}

const listTransactionsByOwner = `
SELECT id, user_id, category_id, type_id, amount, date, description
FROM transactions
WHERE user_id = ?
ORDER BY id ASC
`

func (q *Queries) ListTransactionsByOwner(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByOwner, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.UserID, &i.CategoryID, &i.TypeID, &i.Amount, &i.Date, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `
UPDATE transactions
SET category_id = ?, type_id = ?, amount = ?, date = ?, description = ?
WHERE id = ?
RETURNING id, user_id, category_id, type_id, amount, date, description
`

type UpdateTransactionParams struct {
	CategoryID  int64
	TypeID      int64
	Amount      string
	Date        string
	Description string
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.CategoryID, arg.TypeID, arg.Amount, arg.Date, arg.Description, arg.ID)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.CategoryID, &i.TypeID, &i.Amount, &i.Date, &i.Description)
	return i, err
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanTransactionRow(row *sql.Row) (TransactionRow, error) {
	var i TransactionRow
	err := row.Scan(
		&i.ID, &i.UserID, &i.CategoryID, &i.TypeID, &i.Amount, &i.Date, &i.Description,
		&i.Category.ID, &i.Category.Name, &i.Category.MachineName, &i.Category.UserID,
		&i.Type.ID, &i.Type.Name, &i.Type.MachineName,
	)
	return i, err
}

func scanTransactionRows(rows *sql.Rows) ([]TransactionRow, error) {
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID, &i.UserID, &i.CategoryID, &i.TypeID, &i.Amount, &i.Date, &i.Description,
			&i.Category.ID, &i.Category.Name, &i.Category.MachineName, &i.Category.UserID,
			&i.Type.ID, &i.Type.Name, &i.Type.MachineName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
