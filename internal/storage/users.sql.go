package storage

import "context"

const createUser = `
INSERT INTO users (email, password_hash, name, role, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, email, password_hash, name, role, created_at
`

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Email, arg.PasswordHash, arg.Name, arg.Role, arg.CreatedAt)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Role, &i.CreatedAt)
	return i, err
}

const getUser = `
SELECT id, email, password_hash, name, role, created_at FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Role, &i.CreatedAt)
	return i, err
}

const getUserByEmail = `
SELECT id, email, password_hash, name, role, created_at FROM users WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Role, &i.CreatedAt)
	return i, err
}

const listUsers = `
SELECT id, email, password_hash, name, role, created_at FROM users ORDER BY id ASC
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Role, &i.CreatedAt); err != nil {
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

const updateUser = `
UPDATE users SET email = ?, password_hash = ?, name = ?, role = ?
WHERE id = ?
RETURNING id, email, password_hash, name, role, created_at
`

type UpdateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	ID           int64
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser, arg.Email, arg.PasswordHash, arg.Name, arg.Role, arg.ID)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Role, &i.CreatedAt)
	return i, err
}

const deleteUser = `
DELETE FROM users WHERE id = ?
`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countUsers = `
SELECT COUNT(*) FROM users
`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}
