package backend

import (
	"context"
	"fmt"
	"log/slog"

	"vbudget/internal/api"
	"vbudget/internal/storage"
	"vbudget/internal/store/memory"
	"vbudget/internal/store/remote"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	client *api.Client
}

// NewFactory creates a new backend factory. client is only used by the
// api backend and may be nil otherwise.
func NewFactory(logger *slog.Logger, client *api.Client) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, client: client}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(_ context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case APIBackend:
		return f.createAPIBackend()
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createAPIBackend() (*BackendResult, error) {
	if f.client == nil {
		return nil, fmt.Errorf("api backend requires an API client")
	}

	f.logger.Info("Initialized API backend")

	return &BackendResult{Backend: remote.New(f.client)}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", "seeded", config.Seed)

	return &BackendResult{Backend: memory.New(config.Seed)}, nil
}
