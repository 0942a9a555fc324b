//go:build !js || !wasm

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kittclouds/okai/pkg/catalog"
)

// =============================================================================
// KNOWLEDGE BASE COMMANDS
// =============================================================================

func (c *cli) knowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage knowledge bases",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List knowledge bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, m := range c.app.Knowledge.List() {
				fmt.Fprintf(out, "%-18s %s\n", m.ID, m.Name)
			}
			return nil
		},
	}

	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a knowledge base as <id>.json into --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.app.Knowledge.ExportByID(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(c.exportDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(c.exportDir, catalog.NormalizeID(args[0])+".json")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <id> <file>",
		Short: "Import a knowledge base export under id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := c.app.Knowledge.ImportAs(args[0], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", catalog.NormalizeID(args[0]))
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore",
		Short: "Restore built-in knowledge bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Restore.RestoreKnowledgeBases()
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d knowledge bases\n", len(report.Restored))
			return err
		},
	}

	cmd.AddCommand(list, export, importCmd, restore)
	return cmd
}
