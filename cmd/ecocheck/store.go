package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/EcoCheck/internal/api"
	"github.com/IshaanNene/EcoCheck/internal/report"
	"github.com/IshaanNene/EcoCheck/internal/types"
)

// keyCmd creates the "key" subcommand group.
func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored LLM API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) == 1 {
				key = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				key = strings.TrimSpace(string(data))
			}

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.SaveCredential(context.Background(), key); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ API key saved")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := a.store.GetCredential(context.Background())
			if errors.Is(err, types.ErrCredentialMissing) {
				fmt.Fprintln(cmd.OutOrStdout(), "no API key stored")
				return nil
			}
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), api.MaskKey(key))
			return nil
		},
	})

	return cmd
}

// lastCmd creates the "last" subcommand.
func lastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the last analysis if it is still fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.store.LoadLastAnalysis(context.Background())
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no recent analysis")
				return nil
			}
			if err != nil {
				return userError(err)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return report.RenderText(cmd.OutOrStdout(), result, showBreakdown)
		},
	}
	cmd.Flags().BoolVarP(&showBreakdown, "breakdown", "b", false, "show the detailed breakdown")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	return cmd
}

// clearCmd creates the "clear" subcommand.
func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove old per-page analyses and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.ClearOldAnalyses(context.Background())
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🧹 removed %d entries from %s storage\n", n, a.store.Name())
			return nil
		},
	}
}
