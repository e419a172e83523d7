// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ExponentialDS/vid-text/internal/config"
	"github.com/ExponentialDS/vid-text/internal/jobs"
	vtlog "github.com/ExponentialDS/vid-text/internal/log"
	"github.com/ExponentialDS/vid-text/internal/store"
)

// Reloadable is the part of the fetch pipeline that can pick up new
// defaults at runtime. *jobs.Runner implements it.
type Reloadable interface {
	ApplyConfig(cfg jobs.Config)
}

// App owns the long-lived runtime: the config watcher, reload wiring and
// the store GC loop. Server management is delegated to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	holder       *config.Holder
	runner       Reloadable
	blobs        *store.Store
	reloadSignal os.Signal
	gcInterval   time.Duration
}

// NewApp creates the runtime orchestrator. holder, runner and blobs are
// each optional; nil disables the corresponding subsystem.
func NewApp(logger zerolog.Logger, manager Manager, holder *config.Holder, runner Reloadable, blobs *store.Store) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		holder:       holder,
		runner:       runner,
		blobs:        blobs,
		reloadSignal: syscall.SIGHUP,
		gcInterval:   30 * time.Minute,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Watcher startup is best-effort: a missing inotify descriptor must
	// not keep the service from starting.
	if a.holder != nil {
		if err := a.holder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}

	if a.holder != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.holder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case newCfg := <-applyCh:
					a.applyReload(newCfg)
				}
			}
		})
	}

	// SIGHUP triggers a manual reload.
	if a.holder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.holder.Reload(context.Background()); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	// Periodic value-log GC for the transcript store.
	if a.blobs != nil && a.gcInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(a.gcInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := a.blobs.RunGC(0.5); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "store.gc_failed").
							Msg("store garbage collection failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// applyReload pushes a freshly validated config into the running
// subsystems. Only settings that are safe to change without a restart
// are applied; listeners and storage paths keep their boot values.
func (a *App) applyReload(cfg config.AppConfig) {
	vtlog.Configure(vtlog.Config{
		Level:   cfg.LogLevel,
		Version: cfg.Version,
	})
	if a.runner != nil {
		a.runner.ApplyConfig(JobsConfig(cfg))
	}
	a.logger.Info().
		Str("event", "config.applied").
		Str("log_level", cfg.LogLevel).
		Msg("runtime configuration applied")
}

// JobsConfig maps the application configuration onto the fetch pipeline
// config.
func JobsConfig(cfg config.AppConfig) jobs.Config {
	return jobs.Config{
		DataDir:            cfg.DataDir,
		Languages:          cfg.Languages,
		TranslateTo:        cfg.TranslateTo,
		PreserveFormatting: cfg.PreserveFormatting,
		CacheTTL:           cfg.Cache.TTL,
		StoreTTL:           cfg.Store.TTL,
	}
}

// WaitForShutdown returns a context cancelled by SIGINT or SIGTERM.
func WaitForShutdown() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
