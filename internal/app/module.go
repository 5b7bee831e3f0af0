// Package app composes the application: configuration, profile lock,
// store backend, inference provider and the conversation session, wired
// together as an fx module.
package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pcastro/parley/internal/account"
	"github.com/pcastro/parley/internal/bus"
	"github.com/pcastro/parley/internal/chat"
	"github.com/pcastro/parley/internal/config"
	"github.com/pcastro/parley/internal/directory"
	"github.com/pcastro/parley/internal/lock"
	"github.com/pcastro/parley/internal/logging"
	"github.com/pcastro/parley/internal/profile"
	"github.com/pcastro/parley/internal/reply"
	"github.com/pcastro/parley/internal/state"
	"github.com/pcastro/parley/internal/store"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	// Console mirrors log output to stderr. The TUI disables it since
	// stderr writes would corrupt the screen.
	Console bool
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("app",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideState,
			provideStore,
			provideProvider,
			provideAccount,
			provideDirectory,
			provideSession,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() *config.Config {
	return config.LoadOrDefault(profile.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideState depends on the lock so that only one process reads and
// writes a profile's persisted state at a time.
func provideState(p Params, _ *lock.Lock) (*state.Store, error) {
	return state.Open(profile.StatePath(p.ProfileName))
}

func provideStore(p Params, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		db, err := store.OpenSQLite(profile.DBPath(p.ProfileName))
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized",
			zap.String("backend", "sqlite"),
			zap.String("path", profile.DBPath(p.ProfileName)))
		return db, nil
	case "firestore":
		fs, err := store.OpenFirestore(context.Background(), cfg.Store.Project)
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized",
			zap.String("backend", "firestore"),
			zap.String("project", cfg.Store.Project))
		return fs, nil
	case "memory":
		logger.Info("store initialized", zap.String("backend", "memory"))
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Store.Backend)
	}
}

func provideProvider(cfg *config.Config, logger *zap.Logger) (reply.Provider, error) {
	p, err := reply.New(cfg.Provider)
	if err != nil {
		return nil, err
	}
	logger.Info("provider initialized",
		zap.String("name", cfg.Provider.Name),
		zap.String("model", cfg.Provider.Model))
	return p, nil
}

func provideAccount(st store.Store, logger *zap.Logger) *account.Service {
	return account.NewService(st, logger)
}

func provideDirectory(st store.Store, b *bus.Bus, logger *zap.Logger) *directory.Directory {
	return directory.New(st, b, logger)
}

// provideSession restores the persisted login, so a returning user lands
// directly in the chat screen.
func provideSession(st store.Store, dir *directory.Directory, p reply.Provider, b *bus.Bus, logger *zap.Logger, persisted *state.Store) *chat.Session {
	return chat.NewSession(st, dir, p, b, logger, persisted.UserID())
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, st store.Store, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if err := st.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
