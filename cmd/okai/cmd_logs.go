//go:build !js || !wasm

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/okai/pkg/convlog"
)

// =============================================================================
// CONVERSATION LOG COMMANDS
// =============================================================================

func (c *cli) logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Manage conversation logs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List personas with a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range c.app.Logs.GetAvailablePersonas() {
				conv, _ := c.app.Logs.GetPersonaLogs(p.Key)
				updated := time.UnixMilli(conv.LastUpdated).UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%-18s %-20s %3d messages, updated %s\n", p.Key, p.Name, len(conv.Messages), updated)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <persona>",
		Short: "Print a conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, ok := c.app.Logs.GetPersonaLogs(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", convlog.ErrNoLogs, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), convlog.Formatter{}.FormatConversation(conv))
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export [persona]",
		Short: "Write one or all transcripts into --out",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				name string
				err  error
			)
			if len(args) == 1 {
				name, err = c.app.Logs.DownloadPersonaLogs(args[0])
			} else {
				name, err = c.app.Logs.DownloadAllLogs()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear [persona]",
		Short: "Clear one or all conversations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return c.app.Logs.ClearPersonaLogs(args[0])
			}
			return c.app.Logs.ClearAllLogs()
		},
	}

	cmd.AddCommand(list, show, export, clearCmd)
	return cmd
}
