package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/99designs/keyring"
	"github.com/spf13/cobra"

	"github.com/benaskins/keystore/internal/config"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List keyring backends available on this host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configured backend: %s (group %s)\n\n", cfg.Backend, cfg.Group())

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEYRING BACKEND")
		for _, b := range keyring.AvailableBackends() {
			fmt.Fprintln(w, b)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
