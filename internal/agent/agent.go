package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/mediaindex/internal/config"
	"github.com/mwantia/mediaindex/pkg/db/store"
	"github.com/mwantia/mediaindex/pkg/index"
	"github.com/mwantia/mediaindex/pkg/log"
	"github.com/mwantia/mediaindex/pkg/storage"
)

// MediaIndexAgent owns the services behind every command: the index
// store, the storage backend and the engine binding both together.
type MediaIndexAgent struct {
	mutex sync.RWMutex

	cfg *config.BaseConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	store   *store.SQLiteStore
	backend storage.Backend
	engine  *index.Engine
}

func NewAgent(cfg *config.BaseConfig) *MediaIndexAgent {
	return &MediaIndexAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("mediaindex", cfg.Log),
	}
}

// Setup connects and migrates the index store, creates the configured
// storage backend and the engine. Calling it again before Shutdown is a no-op.
func (mia *MediaIndexAgent) Setup(ctx context.Context) error {
	mia.mutex.Lock()
	defer mia.mutex.Unlock()

	if mia.engine != nil {
		return nil
	}

	st, err := newStore(ctx, mia.cfg.Metadata)
	if err != nil {
		return err
	}

	backend, err := newBackend(ctx, mia.cfg.Storage)
	if err != nil {
		st.Close()
		return err
	}

	extensions, skipped := index.ParseExtensions(mia.cfg.Index.Extensions)
	for _, name := range skipped {
		mia.log.Warn("Ignoring extensions of unknown kind '%s'", name)
	}

	opts := []index.Option{
		index.WithDirectory(mia.cfg.Index.Directory),
		index.WithBaseURL(mia.cfg.Index.URL),
		index.WithThumbnailsDir(mia.cfg.Index.ThumbnailsDir),
		index.WithRenameOverwrite(mia.cfg.Index.RenameOverwrite),
		index.WithExtensions(extensions),
		index.WithExclude(mia.cfg.Index.Exclude...),
	}
	if mia.cfg.Index.Audit {
		opts = append(opts, index.WithHooks(AuditHooks(mia.log.Named("audit"))...))
	}

	engine, err := index.New(st, backend, mia.log.Named("index"), opts...)
	if err != nil {
		st.Close()
		backend.Close()
		return fmt.Errorf("failed to create index engine: %w", err)
	}

	mia.store = st
	mia.backend = backend
	mia.engine = engine

	return mia.setupServices()
}

func (mia *MediaIndexAgent) setupServices() error {
	errs := container.Errors{}

	mia.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](mia.sc,
		container.With[log.LoggerService](),
		container.WithInstance(mia.log)))

	mia.log.Debug("Registering 'IndexStore'...")
	errs.Add(container.Register[store.SQLiteStore](mia.sc,
		container.With[store.IndexStore](),
		container.WithInstance(mia.store)))

	mia.log.Debug("Registering 'MediaIndex'...")
	errs.Add(container.Register[index.Engine](mia.sc,
		container.With[index.MediaIndex](),
		container.WithInstance(mia.engine)))

	return errs.Errors()
}

// Engine returns the engine created by Setup.
func (mia *MediaIndexAgent) Engine() *index.Engine {
	mia.mutex.RLock()
	defer mia.mutex.RUnlock()

	return mia.engine
}

// Store returns the index store created by Setup.
func (mia *MediaIndexAgent) Store() store.IndexStore {
	mia.mutex.RLock()
	defer mia.mutex.RUnlock()

	return mia.store
}

// Run sets up the agent, runs fn until it returns or the process is
// interrupted and shuts the agent down afterwards.
func (mia *MediaIndexAgent) Run(ctx context.Context, fn func(ctx context.Context, engine index.MediaIndex) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := mia.Setup(ctx); err != nil {
		return err
	}

	runErr := fn(ctx, mia.Engine())
	return errors.Join(runErr, mia.Shutdown())
}

// Shutdown cleans up the service container and closes store and backend.
func (mia *MediaIndexAgent) Shutdown() error {
	mia.mutex.Lock()
	defer mia.mutex.Unlock()

	timeout, err := time.ParseDuration(mia.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := mia.sc.Cleanup(shutdown); err != nil {
		errs = append(errs, fmt.Errorf("failed to complete service container cleanup: %w", err))
	}

	if mia.backend != nil {
		if err := mia.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage backend: %w", err))
		}
		mia.backend = nil
	}
	if mia.store != nil {
		if err := mia.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index store: %w", err))
		}
		mia.store = nil
	}
	mia.engine = nil

	return errors.Join(errs...)
}
