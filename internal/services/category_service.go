package services

import (
	"context"
	"errors"
	"strings"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/slug"
	"ledger/internal/storage"
)

const (
	msgCategoryNotFound = "Category not found"
	msgCategoryInUse    = "Cannot delete category because it is linked to transactions."
)

// CategoryInput is the body of a category create.
type CategoryInput struct {
	Name        string
	MachineName string
}

// CategoryPatch holds the fields present in an update. Nil or blank fields
// are left unchanged.
type CategoryPatch struct {
	Name        *string
	MachineName *string
}

// CategoryService manages user-owned categories. Machine names are unique
// per owner.
type CategoryService struct {
	store       CategoryStore
	logger      *applog.Logger
	maxAttempts int

	// overviews carry category names.
	overviews OverviewForgetter
}

func NewCategoryService(store CategoryStore, logger *applog.Logger, maxAttempts int) *CategoryService {
	return &CategoryService{
		store:       store,
		logger:      logger.WithComponent(applog.ComponentCategory),
		maxAttempts: maxAttempts,
	}
}

// List returns the caller's categories ordered by id.
func (s *CategoryService) List(ctx context.Context, page core.Page) (core.PageResult[core.Category], error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.PageResult[core.Category]{}, err
	}
	items, total, err := s.store.ListCategories(ctx, id.UserID, page)
	if err != nil {
		return core.PageResult[core.Category]{}, storeErr("list categories", err)
	}
	return core.PageResult[core.Category]{Items: items, Total: total}, nil
}

// Get returns a category the caller can access. Categories outside the
// caller's scope are reported as not found.
func (s *CategoryService) Get(ctx context.Context, categoryID int64) (core.Category, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.Category{}, err
	}
	return s.load(ctx, id, categoryID)
}

func (s *CategoryService) load(ctx context.Context, id core.Identity, categoryID int64) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return core.Category{}, notFoundOr("get category", msgCategoryNotFound, err)
	}
	if !core.CanAccess(id, c.UserID) {
		return core.Category{}, core.NotFound(msgCategoryNotFound)
	}
	return c, nil
}

// Create stores a category for the caller. The returned machine name may
// carry a numeric suffix when the requested one is taken.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (core.Category, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.Category{}, err
	}

	c := core.Category{
		Name:        strings.TrimSpace(in.Name),
		MachineName: strings.TrimSpace(in.MachineName),
		UserID:      id.UserID,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	var created core.Category
	_, err = slug.CreateUnique(ctx, c.MachineName,
		s.existsFunc(c.UserID, 0),
		func(ctx context.Context, name string) error {
			c.MachineName = name
			var perr error
			created, perr = s.store.CreateCategory(ctx, c)
			return takenOr(perr)
		},
		s.maxAttempts)
	if err != nil {
		return core.Category{}, s.writeErr("create category", err)
	}

	s.logger.InfoContext(ctx, "Category created",
		applog.FieldCategoryID, created.ID,
		applog.FieldMachineName, created.MachineName,
		applog.FieldUserID, created.UserID)
	return created, nil
}

// Update applies the present, non-blank fields of p. A patch with nothing
// to apply returns the stored category unchanged.
func (s *CategoryService) Update(ctx context.Context, categoryID int64, p CategoryPatch) (core.Category, error) {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return core.Category{}, err
	}
	existing, err := s.load(ctx, id, categoryID)
	if err != nil {
		return core.Category{}, err
	}

	next := existing
	changed := false
	if v, ok := nonBlank(p.Name); ok {
		next.Name = v
		changed = true
	}
	machineName, renamed := nonBlank(p.MachineName)
	if !changed && !renamed {
		return existing, nil
	}

	persist := func(ctx context.Context, name string) error {
		next.MachineName = name
		updated, err := s.store.UpdateCategory(ctx, next)
		if err == nil {
			next = updated
		}
		return takenOr(err)
	}
	if renamed {
		_, err = slug.CreateUnique(ctx, machineName, s.existsFunc(existing.UserID, existing.ID), persist, s.maxAttempts)
	} else {
		err = persist(ctx, existing.MachineName)
	}
	if err != nil {
		return core.Category{}, s.writeErr("update category", err)
	}

	forgetOverviews(s.overviews, next.UserID)
	s.logger.InfoContext(ctx, "Category updated",
		applog.FieldCategoryID, next.ID,
		applog.FieldMachineName, next.MachineName)
	return next, nil
}

// Delete removes a category that no transaction references.
func (s *CategoryService) Delete(ctx context.Context, categoryID int64) error {
	id, err := core.RequireIdentity(ctx)
	if err != nil {
		return err
	}
	c, err := s.load(ctx, id, categoryID)
	if err != nil {
		return err
	}

	n, err := s.store.CountCategoryTransactions(ctx, c.ID)
	if err != nil {
		return storeErr("count category transactions", err)
	}
	if n > 0 {
		return core.Conflict(msgCategoryInUse)
	}

	if err := s.store.DeleteCategory(ctx, c.ID); err != nil {
		switch {
		case errors.Is(err, storage.ErrForeignKeyViolation):
			// A transaction was added after the count.
			return core.Conflict(msgCategoryInUse)
		case errors.Is(err, storage.ErrNotFound):
			return core.NotFound(msgCategoryNotFound)
		}
		return storeErr("delete category", err)
	}

	s.logger.InfoContext(ctx, "Category deleted", applog.FieldCategoryID, c.ID)
	return nil
}

func (s *CategoryService) existsFunc(userID, excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.store.CategoryMachineNameExists(ctx, userID, candidate, excludeID)
	}
}

func (s *CategoryService) writeErr(op string, err error) error {
	switch {
	case errors.Is(err, slug.ErrTaken):
		return core.Conflict("machineName is already in use")
	case errors.Is(err, storage.ErrForeignKeyViolation):
		return core.Invalid("category owner does not exist")
	case errors.Is(err, storage.ErrNotFound):
		return core.NotFound(msgCategoryNotFound)
	}
	return storeErr(op, err)
}

// takenOr converts a unique violation into slug.ErrTaken so CreateUnique
// retries the resolution.
func takenOr(err error) error {
	if errors.Is(err, storage.ErrUniqueViolation) {
		return slug.ErrTaken
	}
	return err
}

func nonBlank(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}
