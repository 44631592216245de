package daemon

import (
	"context"
	"os"

	"github.com/campuskit/campusd/internal/api"
	"github.com/campuskit/campusd/internal/backend"
	"github.com/campuskit/campusd/internal/bus"
	"github.com/campuskit/campusd/internal/config"
	"github.com/campuskit/campusd/internal/ingest"
	"github.com/campuskit/campusd/internal/kv"
	"github.com/campuskit/campusd/internal/lock"
	"github.com/campuskit/campusd/internal/logging"
	"github.com/campuskit/campusd/internal/outbox"
	"github.com/campuskit/campusd/internal/reconcile"
	"github.com/campuskit/campusd/internal/rtm"
	"github.com/campuskit/campusd/internal/session"
	"github.com/campuskit/campusd/internal/status"
	"github.com/campuskit/campusd/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile    string
	SocketPath string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideKV,
			provideStore,
			provideBackend,
			provideAdapter,
			provideReconciler,
			provideIngestEngine,
			provideSender,
			provideConnector,
			provideAPI,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.Profile), p.Profile)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(session.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideKV(p Params, logger *zap.Logger) (*kv.DB, error) {
	dbPath := session.CacheDBPath(p.Profile)
	db, err := kv.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideStore(db *kv.DB, logger *zap.Logger) *store.Store {
	return store.New(db, logger)
}

func provideBackend(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout(), logger)
}

func provideAdapter(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *rtm.Adapter {
	return rtm.NewAdapter(cfg.RTM.URL, b, logger)
}

func provideReconciler(s *store.Store, b *bus.Bus, logger *zap.Logger) *reconcile.Reconciler {
	return reconcile.New(s, b, logger)
}

func provideIngestEngine(r *reconcile.Reconciler, b *bus.Bus, logger *zap.Logger) *ingest.Engine {
	return ingest.NewEngine(r, b, logger)
}

func provideSender(s *store.Store, r *reconcile.Reconciler, a *rtm.Adapter, be *backend.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(s, r, a, be, b, logger)
}

func provideConnector(s *store.Store, be *backend.Client, a *rtm.Adapter, m *status.Machine, b *bus.Bus, logger *zap.Logger) *Connector {
	return NewConnector(s, be, a, m, b, logger)
}

func provideAPI(s *store.Store, r *reconcile.Reconciler, be *backend.Client, a *rtm.Adapter, m *status.Machine, b *bus.Bus, logger *zap.Logger) *api.API {
	return api.New(s, r, be, a, m, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, engine *ingest.Engine, sender *outbox.Sender, connector *Connector, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Start ingest engine (subscribes to rtm.* bus events).
			engine.Start(context.Background())

			// Start serving the control socket in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()

			// Start outbox sender.
			sender.Start(context.Background())

			// Resolve auth state and dial the bridge if logged in.
			return connector.Start(context.Background())
		},
		OnStop: func(ctx context.Context) error {
			sender.Stop()
			engine.Stop()
			connector.Stop()
			srv.Stop(ctx)
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
