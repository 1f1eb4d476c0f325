package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.PlaylistService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	// active is the handle of the run in progress, if any.
	active atomic.Pointer[tasks.RunHandle]
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// Service replaces the innertube client, mainly for tests.
	Service    services.PlaylistService
	HTTPClient *http.Client
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        time.Now,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "wlx",
		Usage:    "Prune the oldest entries from YouTube Watch Later",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.configure,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		pruneCommand, exportCommand, sortCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the env file, then the config file, then applies environment overrides.
//
// A missing config file falls back to the embedded defaults unless --config was given explicitly.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if err := shared.LoadEnvFile(cmd.String("env-file")); err != nil {
		r.logger.Warn("ignoring env file", "error", err)
	}

	path := cmd.String("config")
	if r.configPath == "" {
		r.configPath = path
	}

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", path)
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	shared.ApplyEnv(r.config)
	return ctx, nil
}

// playlistService returns the injected service or builds the innertube client from config.
func (r *Runner) playlistService() (services.PlaylistService, error) {
	if r.service != nil {
		return r.service, nil
	}

	path := r.config.Credentials.YouTube.HeadersPath
	if path == "" {
		return nil, fmt.Errorf("%w: credentials.youtube.headers_path is not set (run `wlx setup youtube`)", shared.ErrMissingCredentials)
	}
	if _, err := os.Stat(shared.ExpandPath(path)); err != nil {
		return nil, fmt.Errorf("%w: headers file %s not found (run `wlx setup youtube`)", shared.ErrMissingCredentials, path)
	}

	client := services.NewInnertubeClient(
		services.InnertubeConfigFrom(r.config),
		services.FileHeaders{Path: path},
		r.httpClient,
	)
	r.service = client
	return client, nil
}

// playlistRef resolves the target playlist, discovering browse params from the playlist page when configured to.
func (r *Runner) playlistRef(ctx context.Context, svc services.PlaylistService) tasks.PlaylistRef {
	cfg := r.config.Playlist
	ref := tasks.WatchLater()
	if cfg.ID != "" {
		ref.ID = cfg.ID
	}
	if cfg.EditParams != "" {
		ref.EditParams = cfg.EditParams
	}
	ref.BrowseParams = cfg.BrowseParams

	if ref.BrowseParams != "" || !cfg.DiscoverParams {
		return ref
	}

	client, ok := svc.(*services.InnertubeClient)
	if !ok {
		return ref
	}

	params, err := client.DiscoverBrowseParams(ctx, ref.ID)
	if err != nil {
		r.logger.Warn("browse params discovery failed, continuing without", "playlist", ref.ID, "error", err)
		return ref
	}
	r.logger.Debug("discovered browse params", "playlist", ref.ID)
	ref.BrowseParams = params
	return ref
}

// settingsFrom starts from the configured settings and applies any flags that were set.
func (r *Runner) settingsFrom(cmd *cli.Command) shared.Settings {
	s := r.config.Settings
	if cmd.IsSet("scan-delay") {
		s.ScanPageThrottleMs = cmd.Int("scan-delay")
	}
	if cmd.IsSet("delete-delay") {
		s.DeleteThrottleMs = cmd.Int("delete-delay")
	}
	if cmd.IsSet("sort-attempts") {
		s.SortVerifyMaxAttempts = cmd.Int("sort-attempts")
	}
	if cmd.IsSet("sort-poll") {
		s.SortVerifyPollMs = cmd.Int("sort-poll")
	}
	if cmd.IsSet("batch") {
		s.BatchDeleteCount = cmd.Int("batch")
	}
	return s.Sanitize()
}

func (r *Runner) origin() string {
	if o := r.config.Credentials.YouTube.Origin; o != "" {
		return o
	}
	return "https://www.youtube.com"
}

// beginRun registers a fresh handle so interrupts can reach it.
func (r *Runner) beginRun() *tasks.RunHandle {
	h := tasks.NewRunHandle()
	r.active.Store(h)
	return h
}

func (r *Runner) endRun() {
	r.active.Store(nil)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
