package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/soundleap/soundleap-cli/internal/api"
	"github.com/soundleap/soundleap-cli/internal/chat"
	"github.com/soundleap/soundleap-cli/internal/config"
	"github.com/soundleap/soundleap-cli/internal/logger"
	"github.com/soundleap/soundleap-cli/internal/protocol"
	"github.com/soundleap/soundleap-cli/internal/store"
)

// Env bundles what every command needs: configuration, a logger and
// lazily built collaborators.
type Env struct {
	Config *config.Config
	Logger *slog.Logger

	closeLog func() error
	catalog  *api.Client
	assist   *chat.Client
}

// Setup loads configuration from path (or the default location when
// empty) and opens the logger.
func Setup(path string) (*Env, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.New(cfg.Logger, config.Verbose)
	if err != nil {
		return nil, err
	}
	log.Debug("config loaded", "path", path, "store", cfg.Store.Dir)

	return &Env{Config: cfg, Logger: log, closeLog: closer}, nil
}

// NewEnv wraps an already loaded config, for callers that build their own.
func NewEnv(cfg *config.Config, log *slog.Logger) *Env {
	if log == nil {
		log = logger.Discard()
	}
	return &Env{Config: cfg, Logger: log}
}

// Close flushes and closes the log output.
func (e *Env) Close() error {
	if e.closeLog == nil {
		return nil
	}
	return e.closeLog()
}

// Catalog returns the game catalog client.
func (e *Env) Catalog() *api.Client {
	if e.catalog == nil {
		e.catalog = api.NewClient(e.Config.Catalog.BaseURL, e.Config.Catalog.Timeout, e.Logger.With("component", "catalog"))
	}
	return e.catalog
}

// Assistant returns the FAQ chat client.
func (e *Env) Assistant() *chat.Client {
	if e.assist == nil {
		e.assist = chat.NewClient(e.Config.Chat, e.Logger.With("component", "chat"))
	}
	return e.assist
}

// Store opens the preset store under the data directory.
func (e *Env) Store() (*store.Store, error) {
	s, err := store.Open(store.DefaultPath(e.Config.Store.Dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// ProgramCache opens the downloaded game program cache.
func (e *Env) ProgramCache() (*api.ProgramCache, error) {
	c, err := api.NewProgramCache(filepath.Join(e.Config.Store.Dir, "cache", "games"))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeviceID returns the identity prefixed to every frame.
func (e *Env) DeviceID() (protocol.DeviceID, error) {
	id, err := store.LoadDeviceID(e.Config.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load device id: %w", err)
	}
	return id, nil
}
