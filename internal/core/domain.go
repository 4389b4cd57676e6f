package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the binary authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole maps a requested role to a Role. Only the exact string "ADMIN"
// grants administrator rights, anything else yields RoleUser.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

type (
	User struct {
		ID           int64     `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		Role         Role      `json:"role"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Category struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		MachineName string `json:"machineName"`
		UserID      int64  `json:"userId"`
	}

	TransactionType struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		MachineName string `json:"machineName"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		CategoryID  int64           `json:"categoryId"`
		TypeID      int64           `json:"typeId"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
		Description string          `json:"description"`
	}

	// TransactionDetail is a transaction joined with its category and type
	// for list and detail views.
	TransactionDetail struct {
		Transaction
		Category Category        `json:"category"`
		Type     TransactionType `json:"type"`
	}
)

// Validate checks the fields required to persist a category.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.MachineName) == "" {
		return Invalid("name and machineName are required")
	}
	if c.UserID <= 0 {
		return Invalid("category owner is required")
	}
	return nil
}

// Validate checks the fields required to persist a transaction type.
func (t TransactionType) Validate() error {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.MachineName) == "" {
		return Invalid("name and machineName are required")
	}
	return nil
}

// Validate checks the fields required to persist a transaction.
func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return Invalid("transaction owner is required")
	}
	if t.CategoryID == 0 || t.TypeID == 0 {
		return Invalid("categoryId, typeId, amount are required")
	}
	if t.Date.IsZero() {
		return Invalid("date is required")
	}
	return nil
}

// Validate checks the fields required to persist a user.
func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return Invalid("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return Invalid("email is malformed")
	}
	if !u.Role.IsValid() {
		return Invalid("unknown role")
	}
	return nil
}
