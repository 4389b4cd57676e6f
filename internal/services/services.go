// Package services implements the ledger operations on top of the store:
// identity checks, scoping, slug resolution, caching and activity events.
package services

import (
	"context"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// Services bundles every service of the API over one repository.
type Services struct {
	Users        *UserService
	Categories   *CategoryService
	Types        *TypeService
	Transactions *TransactionService
	Imports      *ImportService
	Activity     *ActivityService

	repo       *storage.SQLiteRepository
	amqpClient *amqp.Client
}

// New wires the services. amqpClient may be nil, which disables events.
func New(cfg *config.Config, repo *storage.SQLiteRepository, amqpClient *amqp.Client, tokens *auth.TokenIssuer, logger *applog.Logger) *Services {
	var publisher Publisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	types := NewTypeService(repo, TypePolicy{
		SuffixOnCreate: cfg.TypeSuffixOnCreate,
		DeleteGuard:    cfg.TypeDeleteGuard,
		MaxAttempts:    cfg.SlugMaxAttempts,
	}, logger)
	transactions := NewTransactionService(repo, repo, publisher, logger)
	users := NewUserService(repo, tokens, logger)
	categories := NewCategoryService(repo, logger, cfg.SlugMaxAttempts)
	linkOverviews(transactions, categories, types, users)

	return &Services{
		Users:        users,
		Categories:   categories,
		Types:        types,
		Transactions: transactions,
		Imports:      NewImportService(transactions, repo, types, cfg.ImportMaxBytes, logger),
		Activity:     NewActivityService(repo, logger),
		repo:         repo,
		amqpClient:   amqpClient,
	}
}

// linkOverviews points category, type and user writes at the overview
// cache of transactions.
func linkOverviews(transactions *TransactionService, categories *CategoryService, types *TypeService, users *UserService) {
	categories.overviews = transactions
	types.overviews = transactions
	users.overviews = transactions
}

// RegisterCaches adds the service caches to m for periodic cleanup.
func (s *Services) RegisterCaches(m *cache.Manager) {
	m.Register(s.Types.Cache())
	m.Register(s.Transactions.Cache())
}

// CacheEntries reports the number of cached entries across services.
func (s *Services) CacheEntries() int {
	return s.Types.Cache().Size() + s.Transactions.Cache().Size()
}

// Ping checks that the store is reachable.
func (s *Services) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close closes both storage and AMQP connections.
func (s *Services) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close services: %v", errs)
	}

	return nil
}
