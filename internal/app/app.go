// Package app wires the dispatcher, its listeners and background jobs around
// a platform client.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonboulle/clockwork"

	"github.com/keshon/server-herald/internal/command"
	"github.com/keshon/server-herald/internal/commands"
	"github.com/keshon/server-herald/internal/config"
	"github.com/keshon/server-herald/internal/datastore"
	"github.com/keshon/server-herald/internal/dispatch"
	"github.com/keshon/server-herald/internal/events"
	"github.com/keshon/server-herald/internal/feedback"
	"github.com/keshon/server-herald/internal/janitor"
	"github.com/keshon/server-herald/internal/logging"
	"github.com/keshon/server-herald/internal/platform"
	"github.com/keshon/server-herald/internal/storage"
	"github.com/keshon/server-herald/pkg/jobmgr"
)

const AppName = "Herald"

type App struct {
	Config     *config.Config
	Bus        *events.Bus
	Registry   *command.Registry
	Listeners  *events.Listeners
	Dispatcher *dispatch.Dispatcher
	Storage    *storage.Storage

	clock   clockwork.Clock
	ds      *datastore.Store
	janitor *janitor.Janitor
}

// New builds the application around client. clock may be nil.
func New(cfg *config.Config, client platform.Client, clock clockwork.Clock) (*App, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	dsCfg := datastore.DefaultConfig(cfg.StoragePath)
	dsCfg.Clock = clock
	ds, err := datastore.Open(dsCfg)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}

	a := &App{Config: cfg, clock: clock, ds: ds}
	a.Storage = storage.New(ds)
	a.Bus = events.NewBus(clock)
	a.Registry = command.NewRegistry(a.Bus)

	a.Listeners = events.NewListeners(a.Bus)

	prefixes := commands.Prefixes(a.Storage, cfg.Prefixes)
	n, err := a.Listeners.Load(events.StaticListeners{
		logging.SignalListener(),
		storage.HistoryListener(a.Storage),
		feedback.Listener(prefixes),
	})
	if err != nil {
		log.Printf("[WARN] Some listeners failed to load: %v", err)
	}
	logging.Debugf("Loaded %d listeners", n)

	opts := cfg.DispatchOptions()
	opts.Clock = clock
	opts.PrefixFunc = prefixes
	opts.Middleware = append(opts.Middleware, logging.Timing())
	a.Dispatcher, err = dispatch.New(a.Registry, a.Bus, client, opts)
	if err != nil {
		a.Listeners.Close()
		_ = ds.Close()
		return nil, err
	}

	n, err = a.Registry.Load(commands.Loader(commands.Deps{
		Registry: a.Registry,
		Storage:  a.Storage,
		Prefixes: prefixes,
		Clock:    clock,
	}))
	if err != nil {
		log.Printf("[WARN] Some commands failed to load: %v", err)
	}
	log.Printf("[INFO] Loaded %d commands", n)

	a.janitor = janitor.New(cfg.SweepInterval, clock)
	a.janitor.Add(janitor.NewContextJob(a.Dispatcher.Contexts(), cfg.ContextLifetime, clock))
	return a, nil
}

// Run starts background jobs plus any extra runners and blocks until ctx is
// done or a runner fails. Jobs are stopped before it returns.
func (a *App) Run(ctx context.Context, extra map[string]func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failed := make(chan error, 1)
	jm := jobmgr.NewManager(ctx, func(s jobmgr.Status) {
		switch s.State {
		case jobmgr.Failed:
			log.Printf("[ERR] Job %s failed: %v", s.Job, s.Err)
			select {
			case failed <- fmt.Errorf("%s: %w", s.Job, s.Err):
			default:
			}
		default:
			logging.Debugf("Job %s %s", s.Job, s.State)
		}
	})
	defer jm.Shutdown()

	runners := map[string]func(context.Context) error{
		"janitor":   a.janitor.Run,
		"datastore": a.ds.Run,
	}
	for name, r := range extra {
		runners[name] = r
	}
	for name, r := range runners {
		if err := jm.Start(name, r); err != nil {
			return err
		}
	}
	log.Printf("[INFO] %s", jm.Summary())

	select {
	case <-ctx.Done():
		return nil
	case err := <-failed:
		return err
	}
}

// Close detaches listeners, stops the dispatcher and flushes storage.
func (a *App) Close() error {
	a.Dispatcher.Close()
	a.Listeners.Close()
	if err := a.ds.Close(); err != nil && !errors.Is(err, datastore.ErrClosed) {
		return fmt.Errorf("close datastore: %w", err)
	}
	return nil
}
