//go:build !js || !wasm

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittclouds/okai/pkg/models"
	"github.com/kittclouds/okai/pkg/notify"
)

// =============================================================================
// MODEL / STORE COMMANDS
// =============================================================================

func (c *cli) modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Show or change the selected model",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := c.app.Models.Selected()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", m.ID, m.Name)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <id>",
		Short: "Select a model from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Models.Select(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := c.app.Models.Selected().ID
			for _, m := range models.All() {
				mark := " "
				if m.ID == selected {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-50s %s\n", mark, m.ID, m.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(set, list)
	return cmd
}

func (c *cli) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print medium statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.medium.Stats()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"database":  c.cfg.DatabasePath,
				"stats":     st,
				"personas":  len(c.app.Personas.List()),
				"knowledge": len(c.app.Knowledge.List()),
				"logs":      len(c.app.Logs.GetLogs()),
				"model":     c.app.Models.Selected().ID,
			})
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a line whenever another process changes the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := notify.NewFileWatcher(c.cfg.DatabasePath, c.app.Bus, c.logger)
			if err != nil {
				return err
			}
			defer w.Close()
			w.SetDebounce(debounce)

			out := cmd.OutOrStdout()
			unsubscribe := c.app.Bus.Subscribe(func(ev notify.Event) {
				if ev.Source != notify.External {
					return
				}
				fmt.Fprintf(out, "%s %s: %d personas, %d conversations\n",
					time.Now().Format(time.TimeOnly), ev.Signal,
					len(c.app.Personas.List()), len(c.app.Logs.GetLogs()))
			})
			defer unsubscribe()

			c.logger.Info("watching", zap.String("path", c.cfg.DatabasePath))
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", notify.DefaultDebounce, "Coalesce bursts of writes")
	return cmd
}
