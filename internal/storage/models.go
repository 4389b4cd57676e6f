package storage

import "database/sql"

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    string
}

type Category struct {
	ID          int64
	Name        string
	MachineName string
	UserID      int64
}

type TransactionType struct {
	ID          int64
	Name        string
	MachineName string
}

type Transaction struct {
	ID          int64
	UserID      int64
	CategoryID  int64
	TypeID      int64
	Amount      string
	Date        string
	Description string
}

// TransactionRow is a transaction joined with its category and type.
type TransactionRow struct {
	Transaction
	Category Category
	Type     TransactionType
}

type Activity struct {
	ID            int64
	EventID       string
	Kind          string
	ActorID       int64
	OwnerID       int64
	TransactionID sql.NullInt64
	BatchID       sql.NullString
	ItemCount     int64
	OccurredAt    string
	RecordedAt    string
}
