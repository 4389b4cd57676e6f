package storage

import (
	"context"
	"database/sql"
)

const createCategory = `
INSERT INTO categories (name, machine_name, user_id)
VALUES (?, ?, ?)
RETURNING id, name, machine_name, user_id
`

type CreateCategoryParams struct {
	Name        string
	MachineName string
	UserID      int64
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.MachineName, arg.UserID)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.MachineName, &i.UserID)
	return i, err
}

const getCategory = `
SELECT id, name, machine_name, user_id FROM categories WHERE id = ?
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, id)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.MachineName, &i.UserID)
	return i, err
}

const listCategoriesByUser = `
SELECT id, name, machine_name, user_id FROM categories
WHERE user_id = ?
ORDER BY id ASC
LIMIT ? OFFSET ?
`

type ListCategoriesByUserParams struct {
	UserID int64
	Limit  int64
	Offset int64
}

func (q *Queries) ListCategoriesByUser(ctx context.Context, arg ListCategoriesByUserParams) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

const allCategoriesByUser = `
SELECT id, name, machine_name, user_id FROM categories
WHERE user_id = ?
ORDER BY id ASC
`

func (q *Queries) AllCategoriesByUser(ctx context.Context, userID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, allCategoriesByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]Category, error) {
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Name, &i.MachineName, &i.UserID); err != nil {
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

const countCategoriesByUser = `
SELECT COUNT(*) FROM categories WHERE user_id = ?
`

func (q *Queries) CountCategoriesByUser(ctx context.Context, userID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCategoriesByUser, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const categoryMachineNameExists = `
SELECT EXISTS (
    SELECT 1 FROM categories
    WHERE user_id = ? AND machine_name = ? AND id != ?
)
`

type CategoryMachineNameExistsParams struct {
	UserID      int64
	MachineName string
	ExcludeID   int64
}

func (q *Queries) CategoryMachineNameExists(ctx context.Context, arg CategoryMachineNameExistsParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, categoryMachineNameExists, arg.UserID, arg.MachineName, arg.ExcludeID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const updateCategory = `
UPDATE categories SET name = ?, machine_name = ?
WHERE id = ?
RETURNING id, name, machine_name, user_id
`

type UpdateCategoryParams struct {
	Name        string
	MachineName string
	ID          int64
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, updateCategory, arg.Name, arg.MachineName, arg.ID)
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.MachineName, &i.UserID)
	return i, err
}

const deleteCategory = `
DELETE FROM categories WHERE id = ?
`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTransactionsByCategory = `
SELECT COUNT(*) FROM transactions WHERE category_id = ?
`

func (q *Queries) CountTransactionsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransactionsByCategory, categoryID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
