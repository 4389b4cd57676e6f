package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"ledger/internal/auth"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

const (
	msgUserNotFound   = "User not found"
	msgUserScope      = "Forbidden"
	msgBadCredentials = "Invalid email or password"
	msgEmailTaken     = "Email is already registered"
)

// UserInput is the body of a user create.
type UserInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// UserPatch holds the fields present in a user update. Nil or blank fields
// are left unchanged.
type UserPatch struct {
	Email    *string
	Password *string
	Name     *string
	Role     *string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

// UserService manages accounts and issues session tokens.
type UserService struct {
	store  UserStore
	tokens *auth.TokenIssuer
	logger *applog.Logger

	// A deleted user's transactions cascade away with the account.
	overviews OverviewForgetter
}

func NewUserService(store UserStore, tokens *auth.TokenIssuer, logger *applog.Logger) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		logger: logger.WithComponent(applog.ComponentUser),
	}
}

// List returns every user for administrators and only the caller otherwise.
func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		u, err := s.store.GetUser(ctx, id.UserID)
		if err != nil {
			return nil, notFoundOr("get user", msgUserNotFound, err)
		}
		return []core.User{u}, nil
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// Create adds an account. Administrators only.
func (s *UserService) Create(ctx context.Context, in UserInput) (core.User, error) {
	if _, err := core.RequireAdmin(ctx); err != nil {
		return core.User{}, err
	}
	return s.create(ctx, in)
}

// Bootstrap creates an account without an identity check. It backs the
// admin CLI, which runs with direct database access.
func (s *UserService) Bootstrap(ctx context.Context, in UserInput) (core.User, error) {
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserInput) (core.User, error) {
	u := core.User{
		Email: strings.TrimSpace(in.Email),
		Name:  strings.TrimSpace(in.Name),
		Role:  core.ParseRole(in.Role),
	}
	if u.Email == "" || in.Password == "" {
		return core.User{}, core.Invalid("email and password are required")
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, core.Invalid(err.Error())
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, s.writeErr("create user", err)
	}
	s.logger.InfoContext(ctx, "User created",
		applog.FieldUserID, created.ID,
		applog.FieldRole, string(created.Role))
	return created, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (core.User, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.User{}, err
	}
	return s.load(ctx, id, userID)
}

func (s *UserService) load(ctx context.Context, id core.Identity, userID int64) (core.User, error) {
	if !core.CanAccess(id, userID) {
		return core.User{}, core.Forbidden(msgUserScope)
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, notFoundOr("get user", msgUserNotFound, err)
	}
	return u, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context) (core.User, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.User{}, err
	}
	return s.load(ctx, id, id.UserID)
}

// Update applies the present, non-blank fields of p. Only administrators
// may change a role.
func (s *UserService) Update(ctx context.Context, userID int64, p UserPatch) (core.User, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.User{}, err
	}
	existing, err := s.load(ctx, id, userID)
	if err != nil {
		return core.User{}, err
	}

	next := existing
	changed := false
	if v, ok := nonBlank(p.Email); ok {
		next.Email = v
		changed = true
	}
	if v, ok := nonBlank(p.Name); ok {
		next.Name = v
		changed = true
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return core.User{}, core.Invalid(err.Error())
		}
		next.PasswordHash = hash
		changed = true
	}
	if v, ok := nonBlank(p.Role); ok {
		if !id.IsAdmin() {
			return core.User{}, core.Forbidden("Only administrators can change roles")
		}
		next.Role = core.ParseRole(v)
		changed = true
	}
	if !changed {
		return existing, nil
	}
	if err := next.Validate(); err != nil {
		return core.User{}, err
	}

	updated, err := s.store.UpdateUser(ctx, next)
	if err != nil {
		return core.User{}, s.writeErr("update user", err)
	}
	s.logger.InfoContext(ctx, "User updated", applog.FieldUserID, updated.ID)
	return updated, nil
}

// Delete removes an account together with its categories and transactions.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return s.writeErr("delete user", err)
	}
	forgetOverviews(s.overviews, userID)
	s.logger.InfoContext(ctx, "User deleted",
		applog.FieldUserID, userID,
		applog.FieldActorID, id.UserID)
	return nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, core.Invalid("email and password are required")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.WarnContext(ctx, "Login failed: unknown email")
		return LoginResult{}, core.Unauthenticated(msgBadCredentials)
	}
	if err != nil {
		return LoginResult{}, storeErr("get user by email", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Login failed: wrong password", applog.FieldUserID, u.ID)
		return LoginResult{}, core.Unauthenticated(msgBadCredentials)
	}

	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.InfoContext(ctx, "User logged in", applog.FieldUserID, u.ID)
	return LoginResult{Token: token, ExpiresAt: expires, User: u}, nil
}

func (s *UserService) writeErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUniqueViolation):
		return core.Conflict(msgEmailTaken)
	case errors.Is(err, storage.ErrNotFound):
		return core.NotFound(msgUserNotFound)
	}
	return storeErr(op, err)
}
