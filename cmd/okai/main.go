//go:build !js || !wasm

// Package main implements okai, an operator CLI over a file-backed store.
// It inspects, restores, exports and watches the same persona, knowledge
// and conversation data the browser client keeps.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittclouds/okai/internal/app"
	"github.com/kittclouds/okai/internal/config"
	"github.com/kittclouds/okai/internal/logging"
	"github.com/kittclouds/okai/internal/store"
	"github.com/kittclouds/okai/pkg/convlog"
)

// cli holds the flags and the context built for one invocation.
type cli struct {
	configPath string
	dbPath     string
	exportDir  string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
	medium *store.SQLiteMedium
	app    *app.Context
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "okai",
		Short: "Inspect and maintain a Super Okai store",
		Long: `okai operates on the SQLite file that backs a Super Okai store.

Subcommands:
  personas   - list, show, delete and restore personas
  knowledge  - list, export, import and restore knowledge bases
  logs       - list, show, export and clear conversations
  model      - show or change the selected model
  dump       - print medium statistics
  watch      - print change signals made by other processes`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "okai.yaml", "YAML config file")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "SQLite file (default: database_path from config)")
	root.PersistentFlags().StringVar(&c.exportDir, "out", ".", "Directory for exported files")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.personasCmd(),
		c.knowledgeCmd(),
		c.logsCmd(),
		c.modelCmd(),
		c.dumpCmd(),
		c.watchCmd(),
	)
	return root
}

// open loads config, builds the logger and opens the store.
func (c *cli) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.verbose {
		cfg.Log.Level = "debug"
	}
	if c.dbPath != "" {
		cfg.DatabasePath = c.dbPath
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	medium, err := store.NewSQLiteMediumWithDSN("file:"+filepath.ToSlash(cfg.DatabasePath), cfg.CapacityBytes)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DatabasePath, err)
	}
	ctx, err := app.New(app.Options{
		Config:     cfg,
		Medium:     medium,
		Logger:     logger,
		Downloader: convlog.DirDownloader{Dir: c.exportDir},
	})
	if err != nil {
		medium.Close()
		return err
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		if err := ctx.SetAPIKey(key, ""); err != nil {
			logger.Warn("ignoring OPENROUTER_API_KEY", zap.Error(err))
		}
	}

	c.cfg, c.logger, c.medium, c.app = cfg, logger, medium, ctx
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	_ = c.logger.Sync()
	err := c.app.Close()
	c.app = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
