package storage

import "context"

const createTransactionType = `
INSERT INTO transaction_types (name, machine_name)
VALUES (?, ?)
RETURNING id, name, machine_name
`

type CreateTransactionTypeParams struct {
	Name        string
	MachineName string
}

func (q *Queries) CreateTransactionType(ctx context.Context, arg CreateTransactionTypeParams) (TransactionType, error) {
	row := q.db.QueryRowContext(ctx, createTransactionType, arg.Name, arg.MachineName)
	var i TransactionType
	err := row.Scan(&i.ID, &i.Name, &i.MachineName)
	return i, err
}

const getTransactionType = `
SELECT id, name, machine_name FROM transaction_types WHERE id = ?
`

func (q *Queries) GetTransactionType(ctx context.Context, id int64) (TransactionType, error) {
	row := q.db.QueryRowContext(ctx, getTransactionType, id)
	var i TransactionType
	err := row.Scan(&i.ID, &i.Name, &i.MachineName)
	return i, err
}

const listTransactionTypes = `
SELECT id, name, machine_name FROM transaction_types ORDER BY id ASC
`

func (q *Queries) ListTransactionTypes(ctx context.Context) ([]TransactionType, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionType
	for rows.Next() {
		var i TransactionType
		if err := rows.Scan(&i.ID, &i.Name, &i.MachineName); err != nil {
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

const transactionTypeMachineNameExists = `
SELECT EXISTS (
    SELECT 1 FROM transaction_types WHERE machine_name = ? AND id != ?
)
`

type TransactionTypeMachineNameExistsParams struct {
	MachineName string
	ExcludeID   int64
}

func (q *Queries) TransactionTypeMachineNameExists(ctx context.Context, arg TransactionTypeMachineNameExistsParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, transactionTypeMachineNameExists, arg.MachineName, arg.ExcludeID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const updateTransactionType = `
UPDATE transaction_types SET name = ?, machine_name = ?
WHERE id = ?
RETURNING id, name, machine_name
`

type UpdateTransactionTypeParams struct {
	Name        string
	MachineName string
	ID          int64
}

func (q *Queries) UpdateTransactionType(ctx context.Context, arg UpdateTransactionTypeParams) (TransactionType, error) {
	row := q.db.QueryRowContext(ctx, updateTransactionType, arg.Name, arg.MachineName, arg.ID)
	var i TransactionType
	err := row.Scan(&i.ID, &i.Name, &i.MachineName)
	return i, err
}

const deleteTransactionType = `
DELETE FROM transaction_types WHERE id = ?
`

func (q *Queries) DeleteTransactionType(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransactionType, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTransactionsByType = `
SELECT COUNT(*) FROM transactions WHERE type_id = ?
`

func (q *Queries) CountTransactionsByType(ctx context.Context, typeID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactionsByType, typeID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
