package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/config"
	"github.com/five82/dex/internal/connectivity"
	"github.com/five82/dex/internal/offline"
	"github.com/five82/dex/internal/pokeapi"
	"github.com/five82/dex/internal/prefs"
	"github.com/five82/dex/internal/state"
	"github.com/five82/dex/internal/ui"
)

const (
	userAgent    = "dex/1.0 (+https://github.com/five82/dex)"
	primeTimeout = 3 * time.Second
)

// Options configure the dex application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/dex/prefs.toml
	Offline    bool   // start pinned offline

	// LogOutput overrides the configured log file. The TUI leaves it nil so
	// logs go to the file; headless commands pass os.Stderr.
	LogOutput io.Writer
}

// Env is the wired runtime shared by the TUI and the headless surfaces.
type Env struct {
	Config    config.Config
	Logger    *slog.Logger
	Client    *pokeapi.Client
	Snapshots *offline.Store
	Monitor   *connectivity.Monitor
	Prober    *connectivity.Prober
	Store     *state.Store
	Browser   *catalog.Browser

	cancel  context.CancelFunc
	logFile *os.File
	unsub   func()
}

// Open loads configuration and wires every component. The prober is primed
// synchronously so the first page request already knows whether the network
// is reachable. Callers must Close the returned Env.
func Open(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env := &Env{Config: cfg}

	logOut := opts.LogOutput
	if logOut == nil {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		env.logFile = f
		logOut = f
	}
	env.Logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.LogLevel}))

	client, err := pokeapi.NewClient(cfg.APIBase,
		pokeapi.WithTimeout(cfg.RequestTimeout),
		pokeapi.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		pokeapi.WithUserAgent(userAgent),
	)
	if err != nil {
		env.closeLog()
		return nil, fmt.Errorf("init pokeapi client: %w", err)
	}
	env.Client = client

	if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath()), 0o755); err != nil {
		env.closeLog()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	snapshots, err := offline.Open(cfg.SnapshotPath(), env.Logger.With(slog.String("component", "offline")))
	if err != nil {
		env.closeLog()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	env.Snapshots = snapshots

	env.Monitor = connectivity.NewMonitor(true)
	if opts.Offline {
		env.Monitor.SetForced(true)
	}
	env.Prober = connectivity.NewProber(client, env.Monitor, cfg.ProbeInterval,
		env.Logger.With(slog.String("component", "connectivity")))

	env.Store = &state.Store{}
	env.Browser = catalog.New(client, snapshots, env.Monitor, env.Store, catalog.Options{
		PageSize:       cfg.PageSize,
		CatalogSize:    cfg.CatalogSize,
		SearchBatch:    cfg.SearchBatch,
		SearchLimit:    cfg.SearchLimit,
		MinQueryLength: cfg.MinQueryLength,
		Debounce:       cfg.Debounce,
		Concurrency:    cfg.Concurrency,
		Logger:         env.Logger.With(slog.String("component", "catalog")),
	})
	env.unsub = env.Monitor.OnChange(env.Browser.HandleConnectivity)

	probeCtx, cancel := context.WithCancel(ctx)
	env.cancel = cancel
	if !opts.Offline {
		primeCtx, primeCancel := context.WithTimeout(probeCtx, primeTimeout)
		online := env.Prober.Prime(primeCtx)
		primeCancel()
		env.Logger.Info("dex starting",
			slog.String("api", client.BaseURL()),
			slog.Bool("online", online),
			slog.String("snapshot", cfg.SnapshotPath()))
	}
	env.Prober.Start(probeCtx)

	return env, nil
}

// Close stops background work and releases the snapshot database and log file.
func (e *Env) Close() error {
	if e == nil {
		return nil
	}
	if e.cancel != nil {
		e.cancel()
	}
	if e.unsub != nil {
		e.unsub()
	}
	if e.Browser != nil {
		e.Browser.Close()
		e.Browser.Wait()
	}
	var errs []error
	if e.Snapshots != nil {
		if err := e.Snapshots.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close snapshot store: %w", err))
		}
	}
	e.closeLog()
	return errors.Join(errs...)
}

func (e *Env) closeLog() {
	if e.logFile != nil {
		_ = e.logFile.Close()
		e.logFile = nil
	}
}

// Run boots the dex TUI until the user exits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		env.Logger.Warn("prefs unreadable, using defaults", slog.String("error", err.Error()))
	}

	env.Browser.Start(userPrefs.LastPage)

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: env.Browser,
		Store:      env.Store,
		Network:    env.Monitor,
		ThemeName:  userPrefs.Theme,
		PrefsPath:  prefsPath,
		LogFile:    env.Config.LogFile,
		Logger:     env.Logger.With(slog.String("component", "ui")),
	})
}

// openLogFile opens the log file for appending, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
