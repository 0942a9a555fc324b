// Package app wires the okai stores, managers and services into one Context
// shared by the WASM bridge and the CLI.
package app

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/config"
	"github.com/kittclouds/okai/internal/logging"
	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/catalog"
	"github.com/kittclouds/okai/pkg/chat"
	"github.com/kittclouds/okai/pkg/convlog"
	"github.com/kittclouds/okai/pkg/knowledge"
	"github.com/kittclouds/okai/pkg/models"
	"github.com/kittclouds/okai/pkg/notify"
	"github.com/kittclouds/okai/pkg/openrouter"
	"github.com/kittclouds/okai/pkg/persona"
	"github.com/kittclouds/okai/pkg/restore"
	"github.com/kittclouds/okai/pkg/style"
)

var ErrNoMedium = errors.New("app: medium is required")

// Options carries the collaborators a Context cannot build itself.
type Options struct {
	Config     config.Config
	Medium     store.Medium
	Logger     *zap.Logger
	Downloader convlog.Downloader
	Completer  chat.Completer
	// Clock and Rand are for tests; nil means wall time and a seeded PCG.
	Clock func() time.Time
	Rand  rand.Source
}

// Context owns every component of one store instance.
type Context struct {
	Config config.Config
	Logger *zap.Logger
	Medium store.Medium
	Keys   store.Keys
	Bus    *notify.Bus

	Personas  *persona.Manager
	Knowledge *knowledge.Manager
	Restore   *restore.Coordinator
	Models    *models.Selector
	Logs      *convlog.Manager
	Styler    *style.Styler
	Chat      *chat.Service

	unsubscribe func()
}

// New validates the config, builds every component over opts.Medium and
// seeds an empty persona catalog.
func New(opts Options) (*Context, error) {
	if opts.Medium == nil {
		return nil, ErrNoMedium
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	logger := logging.OrNop(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	keys := store.NewKeys(cfg.KeyPrefix)
	bus := notify.NewBus()
	catalogOpts := func(name string) []catalog.Option {
		return []catalog.Option{
			catalog.WithKeys(keys),
			catalog.WithCacheSize(cfg.CacheSize),
			catalog.WithBus(bus),
			catalog.WithLogger(logger.Named("catalog." + name)),
			catalog.WithClock(clock),
		}
	}

	personaStore := persona.NewStore(opts.Medium, catalogOpts("persona")...)
	knowledgeStore := knowledge.NewStore(opts.Medium, catalogOpts("knowledge")...)

	c := &Context{
		Config:    cfg,
		Logger:    logger,
		Medium:    opts.Medium,
		Keys:      keys,
		Bus:       bus,
		Personas:  persona.NewManager(personaStore, opts.Medium, keys, cfg.ProtectBuiltIns, logger),
		Knowledge: knowledge.NewManager(knowledgeStore, logger),
		Restore:   restore.NewCoordinator(personaStore, knowledgeStore, opts.Medium, keys, logger),
		Models:    models.NewSelector(opts.Medium, keys, bus, logger),
		Styler:    style.NewStyler(opts.Rand, logger),
	}

	logOpts := []convlog.Option{
		convlog.WithKeys(keys),
		convlog.WithBus(bus),
		convlog.WithLogger(logger),
		convlog.WithClock(clock),
		convlog.WithMaxMessages(cfg.MaxMessagesPerPersona),
		convlog.WithRetention(time.Duration(cfg.RetentionDays) * 24 * time.Hour),
	}
	if opts.Downloader != nil {
		logOpts = append(logOpts, convlog.WithDownloader(opts.Downloader))
	}
	c.Logs = convlog.NewManager(opts.Medium, c.Personas, c.Models, logOpts...)
	c.Chat = chat.NewService(c.Personas, c.Knowledge, c.Models, c.Logs, c.Styler, opts.Completer, logger)

	c.unsubscribe = bus.Subscribe(func(ev notify.Event) {
		if ev.Source == notify.External && ev.Signal == notify.StorageChanged {
			c.refresh()
		}
	})

	if err := c.Personas.Initialize(); err != nil {
		c.unsubscribe()
		return nil, err
	}
	logger.Info("store ready",
		zap.String("prefix", keys.Prefix),
		zap.Int("personas", len(c.Personas.List())))
	return c, nil
}

// HandleExternalChange reacts to a write made by another tab or process.
// key is the changed medium key; "" means the whole medium was cleared.
// Keys outside the prefix are ignored. It reports whether caches were
// refreshed.
func (c *Context) HandleExternalChange(key string) bool {
	if key != "" && !c.Keys.Owns(key) {
		return false
	}
	c.Bus.Publish(notify.Event{Signal: notify.StorageChanged, Source: notify.External})
	return true
}

// refresh drops everything read from the medium so the next read sees the
// other writer's data.
func (c *Context) refresh() {
	c.Personas.Store().Invalidate()
	c.Knowledge.Store().Invalidate()
	c.Logs.Reload()
	c.Logger.Debug("caches invalidated after external change")
}

// SetAPIKey installs an OpenRouter completer for key. An empty key
// disconnects chat until a key is set again.
func (c *Context) SetAPIKey(key, referer string) error {
	if key == "" {
		c.Chat.SetCompleter(nil)
		return nil
	}
	client, err := openrouter.New(openrouter.Config{APIKey: key, Referer: referer})
	if err != nil {
		return err
	}
	c.Chat.SetCompleter(client)
	return nil
}

// Close detaches from the bus and closes the medium when it holds resources.
func (c *Context) Close() error {
	c.unsubscribe()
	if closer, ok := c.Medium.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
