// Package app wires all bingo daemon subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the serving loops, and Shutdown tears everything
// down in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithSTTProvider, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wrsmith108/bingo-demo/internal/category"
	"github.com/wrsmith108/bingo-demo/internal/config"
	"github.com/wrsmith108/bingo-demo/internal/discord"
	"github.com/wrsmith108/bingo-demo/internal/discord/commands"
	"github.com/wrsmith108/bingo-demo/internal/health"
	"github.com/wrsmith108/bingo-demo/internal/observe"
	"github.com/wrsmith108/bingo-demo/internal/resilience"
	"github.com/wrsmith108/bingo-demo/internal/server"
	"github.com/wrsmith108/bingo-demo/internal/session"
	"github.com/wrsmith108/bingo-demo/internal/store/postgres"
	"github.com/wrsmith108/bingo-demo/internal/transcript"
	"github.com/wrsmith108/bingo-demo/pkg/stt"
)

// persistTimeout bounds each store write triggered by a state change.
const persistTimeout = 5 * time.Second

// Store is the persistence surface the app needs. Implemented by the
// postgres store; nil runs the daemon in memory only.
type Store interface {
	SaveSnapshot(ctx context.Context, snap session.Snapshot) error
	LoadSnapshot(ctx context.Context) (session.Snapshot, bool, error)
	ClearSnapshot(ctx context.Context) error
	RecordCompletedGame(ctx context.Context, snap session.Snapshot) error
	CompletedGames(ctx context.Context, limit int) ([]postgres.CompletedGame, error)
	WriteTranscript(ctx context.Context, text string, detected []string) error
	Ping(ctx context.Context) error
	Close()
}

// App owns all subsystem lifetimes.
type App struct {
	cfg        *config.Config
	categories *category.Registry
	ctl        *session.Controller
	hub        *server.Hub
	listener   *transcript.Listener
	store      Store
	sttProv    stt.Provider
	metrics    *observe.Metrics
	httpSrv    *http.Server
	bot        *discord.Bot
	voice      *discord.VoiceReceiver

	// closers run in reverse order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a store instead of connecting to Postgres from config.
func WithStore(s Store) Option {
	return func(a *App) { a.store = s }
}

// WithSTTProvider injects a speech provider instead of building one via the
// provider registry.
func WithSTTProvider(p stt.Provider) Option {
	return func(a *App) { a.sttProv = p }
}

// WithMetrics injects a metrics set instead of using the defaults.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The provider
// registry comes from main.go with the real STT factories registered.
//
// New performs all initialisation synchronously: category pack loading,
// store connection, session resume, speech provider construction, and the
// HTTP and Discord front ends.
func New(ctx context.Context, cfg *config.Config, providers *config.Registry, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initCategories(); err != nil {
		return nil, fmt.Errorf("app: init categories: %w", err)
	}

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	a.hub = server.NewHub()
	a.ctl = session.New(a.categories, session.WithOnChange(a.onStateChange))

	if err := a.resumeSession(ctx); err != nil {
		slog.Warn("could not resume saved game", "error", err)
	}

	if err := a.initSpeech(ctx, providers); err != nil {
		return nil, fmt.Errorf("app: init speech: %w", err)
	}

	a.initHTTP()

	if err := a.initDiscord(ctx); err != nil {
		return nil, fmt.Errorf("app: init discord: %w", err)
	}

	return a, nil
}

// Controller exposes the session controller, mainly for tests.
func (a *App) Controller() *session.Controller {
	return a.ctl
}

// initCategories builds the registry: built-ins plus YAML packs from config.
func (a *App) initCategories() error {
	a.categories = category.NewRegistry()
	for _, path := range a.cfg.Game.CategoryPacks {
		pf, err := category.LoadPackFile(path)
		if err != nil {
			return fmt.Errorf("load pack %q: %w", path, err)
		}
		n, err := category.ImportPacks(a.categories, pf)
		if err != nil {
			return fmt.Errorf("import pack %q: %w", path, err)
		}
		slog.Info("imported category pack", "path", path, "categories", n)
	}
	return nil
}

// initStore connects to Postgres when a DSN is configured and no store was
// injected. An empty DSN leaves persistence off.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Info("no storage configured, games will not survive restarts")
		return nil
	}

	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return nil
}

// resumeSession restores the saved game, if any, into the controller.
func (a *App) resumeSession(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	snap, found, err := a.store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := a.ctl.Restore(snap); err != nil {
		return err
	}
	slog.Info("resumed saved game", "category", snap.CategoryID, "status", snap.Status, "filled", snap.FilledCount)
	return nil
}

// initSpeech builds the STT provider from config and the transcript
// listener on top of it. No configured provider leaves speech capture off.
func (a *App) initSpeech(_ context.Context, providers *config.Registry) error {
	if a.sttProv == nil {
		entry := a.cfg.Providers.STT
		if entry.Name == "" {
			slog.Info("no speech provider configured, manual marking only")
			return nil
		}
		prov, err := providers.CreateSTT(entry)
		if err != nil {
			return err
		}
		a.sttProv = prov
		if closer, ok := prov.(interface{ Close() error }); ok {
			a.closers = append(a.closers, closer.Close)
		}

		if fb := a.cfg.Providers.STTFallback; fb != nil {
			fbProv, err := providers.CreateSTT(*fb)
			if err != nil {
				return fmt.Errorf("fallback provider: %w", err)
			}
			if closer, ok := fbProv.(interface{ Close() error }); ok {
				a.closers = append(a.closers, closer.Close)
			}
			chain := resilience.NewFailover(entry.Name, a.sttProv, resilience.BreakerConfig{})
			chain.Add(fb.Name, fbProv)
			a.sttProv = chain
			slog.Info("speech failover enabled", "primary", entry.Name, "fallback", fb.Name)
		}
	}

	listenerOpts := []transcript.Option{transcript.WithMetrics(a.metrics)}
	if a.store != nil {
		listenerOpts = append(listenerOpts, transcript.WithLog(a.store))
	}
	if a.cfg.Discord.Token != "" {
		// Discord voice delivers 48 kHz stereo PCM.
		listenerOpts = append(listenerOpts, transcript.WithStreamConfig(stt.StreamConfig{
			SampleRate: discord.VoiceSampleRate,
			Channels:   discord.VoiceChannels,
		}))
	}
	a.listener = transcript.New(a.sttProv, a.ctl, listenerOpts...)
	a.closers = append(a.closers, func() error {
		a.listener.Stop()
		return nil
	})
	return nil
}

// initHTTP assembles the API server.
func (a *App) initHTTP() {
	srvOpts := []server.Option{
		server.WithMetrics(a.metrics),
		server.WithPublicURL(a.cfg.Server.PublicURL),
	}
	if a.listener != nil {
		srvOpts = append(srvOpts, server.WithListener(a.listener))
	}
	if a.store != nil {
		srvOpts = append(srvOpts, server.WithGameLog(a.store))
		srvOpts = append(srvOpts, server.WithHealthCheckers(health.Checker{
			Name:  "postgres",
			Check: a.store.Ping,
		}))
	}

	api := server.New(a.ctl, a.categories, a.hub, srvOpts...)
	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// initDiscord connects the bot when a token is configured.
func (a *App) initDiscord(ctx context.Context) error {
	if a.cfg.Discord.Token == "" {
		return nil
	}

	bot, err := discord.New(ctx, a.cfg.Discord)
	if err != nil {
		return err
	}
	a.bot = bot
	a.closers = append(a.closers, bot.Close)

	if a.listener != nil {
		a.voice = discord.NewVoiceReceiver(bot.Session(), a.cfg.Discord.GuildID, a.listener)
		a.closers = append(a.closers, a.voice.Leave)
	}
	commands.NewBingoCommands(bot, a.ctl, a.categories, a.listener, a.voice,
		a.cfg.Server.PublicURL, a.cfg.Game.DefaultCategory)
	return nil
}

// HandleConfigChange applies what can change at runtime: log level and
// category packs. Everything else (listen address, providers, storage)
// requires a restart. Wire this as the config watcher's callback.
func (a *App) HandleConfigChange(old, next *config.Config) {
	d := config.Diff(old, next)
	if !d.Any() {
		return
	}

	if d.LogLevelChanged {
		config.LevelVar.Set(d.NewLogLevel.SlogLevel())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	if d.CategoryPacksChanged {
		// Packs replace by ID, so re-importing over the live registry is
		// safe; removed packs stay registered until restart.
		for _, path := range next.Game.CategoryPacks {
			pf, err := category.LoadPackFile(path)
			if err != nil {
				slog.Warn("reload pack failed", "path", path, "error", err)
				continue
			}
			n, err := category.ImportPacks(a.categories, pf)
			if err != nil {
				slog.Warn("reload pack failed", "path", path, "error", err)
				continue
			}
			slog.Info("reloaded category pack", "path", path, "categories", n)
		}
	}

	if d.DefaultCategoryChanged {
		a.cfg.Game.DefaultCategory = d.NewDefaultCategory
		slog.Info("default category changed", "category", d.NewDefaultCategory)
	}
}

// onStateChange fans each state change out to websocket subscribers and the
// store. Runs outside the controller lock.
func (a *App) onStateChange(snap session.Snapshot) {
	a.hub.Publish(snap)

	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	switch snap.Status {
	case session.StatusIdle:
		if err := a.store.ClearSnapshot(ctx); err != nil {
			slog.Warn("clear saved game failed", "error", err)
		}
	case session.StatusWon:
		if err := a.store.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("save game failed", "error", err)
		}
		if err := a.store.RecordCompletedGame(ctx, snap); err != nil {
			slog.Warn("record completed game failed", "error", err)
		}
	default:
		if err := a.store.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("save game failed", "error", err)
		}
	}
}

// Run starts the HTTP server and the Discord bot and blocks until ctx is
// cancelled or a subsystem fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.httpSrv.Addr)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.httpSrv.Shutdown(shutdownCtx)
	})

	if a.bot != nil {
		g.Go(func() error {
			err := a.bot.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
