package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likecast/internal/formatter"
	"github.com/desertthunder/likecast/internal/models"
	"github.com/desertthunder/likecast/internal/publisher"
	"github.com/desertthunder/likecast/internal/repositories"
	"github.com/desertthunder/likecast/internal/services"
	"github.com/desertthunder/likecast/internal/shared"
	"github.com/desertthunder/likecast/internal/snapshot"
	"github.com/desertthunder/likecast/internal/tasks"
	"github.com/desertthunder/likecast/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	mu         sync.Mutex // guards config writes from token refresh callbacks
	config     *shared.Config
	configPath string
	library    services.Library
	poster     services.Poster
	sleeper    publisher.Sleeper
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Library and Poster are built from the config on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Library    services.Library
	Poster     services.Poster
	Sleeper    publisher.Sleeper
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Sleeper == nil {
		opts.Sleeper = publisher.TimerSleeper{}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		library:    opts.Library,
		poster:     opts.Poster,
		sleeper:    opts.Sleeper,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    ui.Styles,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, watchCommand, diffCommand, snapshotCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure applies the global flags: --config reloads the config from another file, --verbose enables debug logs.
func (r *Runner) configure(cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	config.ApplyEnv()

	r.mu.Lock()
	r.config = config
	r.configPath = path
	r.mu.Unlock()

	r.logger.Debug("loaded config", "path", path)
	return nil
}

// saveTokens stores a refreshed Spotify token in the config and, when the config file exists, in that file.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	return r.storeToken("spotify", func(c *shared.Config) error {
		return c.Credentials.Spotify.Update(token)
	})
}

// saveTwitterTokens stores a refreshed X token in the config and, when the config file exists, in that file.
func (r *Runner) saveTwitterTokens(token *oauth2.Token) error {
	return r.storeToken("twitter", func(c *shared.Config) error {
		return c.Credentials.Twitter.Update(token)
	})
}

func (r *Runner) storeToken(name string, update func(*shared.Config) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := update(r.config); err != nil {
		return fmt.Errorf("failed to update %s configuration: %w", name, err)
	}

	if r.configPath == "" {
		return nil
	}
	if _, err := os.Stat(r.configPath); os.IsNotExist(err) {
		r.logger.Debug("no config file, refreshed token kept in memory", "service", name, "path", r.configPath)
		return nil
	}

	// only the token changes on disk; values from the environment stay out of the file
	onDisk, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	if err := update(onDisk); err != nil {
		return fmt.Errorf("failed to update %s configuration: %w", name, err)
	}

	if err := shared.SaveConfig(r.configPath, onDisk); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.logger.Debug("saved refreshed token", "service", name, "path", r.configPath)
	return nil
}

// spotifyLibrary returns the configured library, building the Spotify client on first use.
func (r *Runner) spotifyLibrary(ctx context.Context) (services.Library, error) {
	if r.library != nil {
		return r.library, nil
	}

	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed spotify token", "error", err)
		}
	})

	if err := svc.OAuthenticate(ctx, creds.Token()); err != nil {
		return nil, err
	}

	r.library = svc
	return svc, nil
}

// xPoster returns the configured poster, building the X client (or a dry-run poster) on first use.
func (r *Runner) xPoster(ctx context.Context, dryRun bool) (services.Poster, error) {
	if dryRun {
		return services.NewDryRunPoster(r.logger), nil
	}
	if r.poster != nil {
		return r.poster, nil
	}

	creds := r.config.Credentials.Twitter
	svc := services.NewXService(creds.Map(), r.config.Sync.RequestsPerMinute)
	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTwitterTokens(token); err != nil {
			r.logger.Warn("failed to persist refreshed x token", "error", err)
		}
	})

	if err := svc.OAuthenticate(ctx, creds.Token()); err != nil {
		return nil, err
	}

	r.poster = svc
	return svc, nil
}

// openHistory opens the post history database, running pending migrations.
func (r *Runner) openHistory() (*sql.DB, error) {
	cfg := r.config.Database
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: database.path is empty", shared.ErrInvalidConfig)
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// engineOpts selects what a sync engine is built for.
type engineOpts struct {
	dryRun        bool
	skipBootstrap bool
	needPoster    bool
}

// buildEngine wires the library, poster, snapshot store and history recorder into a [tasks.SyncEngine].
//
// The returned cleanup closes the history database, if one was opened.
func (r *Runner) buildEngine(ctx context.Context, opts engineOpts) (*tasks.SyncEngine, func(), error) {
	cleanup := func() {}

	if err := r.config.Validate(opts.needPoster && !opts.dryRun); err != nil {
		return nil, cleanup, err
	}
	syncCfg := r.config.Sync

	library, err := r.spotifyLibrary(ctx)
	if err != nil {
		return nil, cleanup, err
	}

	var poster services.Poster = services.NewDryRunPoster(r.logger)
	if opts.needPoster {
		if poster, err = r.xPoster(ctx, opts.dryRun); err != nil {
			return nil, cleanup, err
		}
	}

	pub := publisher.New(poster,
		publisher.WithFormatter(formatter.New(formatter.ParseHashtagMode(syncCfg.HashtagMode))),
		publisher.WithRetryPolicy(publisher.RetryPolicy{MaxRetries: syncCfg.MaxRetries}),
		publisher.WithSleeper(r.sleeper),
		publisher.WithLogger(r.logger),
	)

	engineOptions := tasks.Options{
		PageSize:      syncCfg.PageSize,
		PostDelay:     syncCfg.PostDelay(),
		SkipBootstrap: syncCfg.SkipBootstrap || opts.skipBootstrap,
		Sleeper:       r.sleeper,
		Logger:        r.logger,
	}

	if opts.needPoster && !opts.dryRun {
		db, err := r.openHistory()
		if err != nil {
			r.logger.Warn("post history disabled", "error", err)
		} else {
			engineOptions.Recorder = repositories.NewPostRepository(db)
			cleanup = func() { db.Close() }
		}
	}

	store := snapshot.NewFileStore(syncCfg.SnapshotPath)
	return tasks.NewSyncEngine(library, store, pub, engineOptions), cleanup, nil
}

// progressPrinter prints updates until the returned stop function is called.
func (r *Runner) progressPrinter() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadSnapshot, tasks.FetchLibrary:
				r.writePlain("%s\n", update.Message)
			case tasks.Compare:
				r.writePlain("%s\n\n", r.palette.Title(update.Message))
			case tasks.PublishItem:
				if result, ok := update.Data.(models.PostResult); ok && !result.OK() {
					r.writePlain("  %s\n", r.palette.Warn(update.Message))
				} else {
					r.writePlain("  %s\n", update.Message)
				}
			case tasks.Pause:
				r.writePlain("  %s\n", r.palette.Help(update.Message))
			case tasks.SaveSnapshot:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", r.palette.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
