//go:build !js || !wasm

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// =============================================================================
// PERSONA COMMANDS
// =============================================================================

func (c *cli) personasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Manage personas",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List personas in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, m := range c.app.Personas.List() {
				builtIn := ""
				if m.IsBuiltIn {
					builtIn = " (built-in)"
				}
				fmt.Fprintf(out, "%-4d %-18s %s%s\n", m.DisplayOrder, m.ID, m.Name, builtIn)
			}
			if ids := c.app.Personas.Store().DeletedIDs(); len(ids) > 0 {
				fmt.Fprintf(out, "deleted: %v\n", ids)
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a persona with its metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok := c.app.Personas.GetPersonaStore(args[0])
			if !ok {
				return fmt.Errorf("persona %q not found", args[0])
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a persona",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Personas.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore",
		Short: "Restore built-in personas, keeping preferences and custom personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.app.Restore.RestorePersonas()
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d personas\n", len(report.Restored))
			return err
		},
	}

	order := &cobra.Command{
		Use:   "order <id> <position> [<id> <position>...]",
		Short: "Set persona display order",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected id/position pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			orders := make(map[string]int, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				n, err := strconv.Atoi(args[i+1])
				if err != nil {
					return fmt.Errorf("position for %s: %w", args[i], err)
				}
				orders[args[i]] = n
			}
			report, err := c.app.Restore.UpdatePersonaOrders(orders)
			fmt.Fprintf(cmd.OutOrStdout(), "reordered %d personas\n", len(report.Restored))
			return err
		},
	}

	cmd.AddCommand(list, get, del, restore, order)
	return cmd
}
