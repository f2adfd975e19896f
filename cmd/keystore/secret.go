package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/benaskins/keystore/internal/audit"
	"github.com/benaskins/keystore/internal/config"
	"github.com/benaskins/keystore/internal/keychain"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

var errNoValue = errors.New("no value stored")

// openStore builds the audited store described by the config file. The
// returned func closes the audit log.
func openStore() (*keychain.AuditedStore, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	v, err := cfg.Vault()
	if err != nil {
		return nil, nil, err
	}

	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return nil, nil, err
	}
	meta, err := keychain.NewMetadataStore(cfg.Metadata)
	if err != nil {
		auditLog.Close()
		return nil, nil, err
	}

	store := keychain.NewAuditedStore(keychain.New(cfg.Queryable(), v), auditLog, meta, cfg.Group(), "cli")
	return store, func() { auditLog.Close() }, nil
}

func readSecret() (string, error) {
	return readSecretFrom(os.Stdin)
}

func readSecretFrom(in *os.File) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(os.Stderr, "Enter secret value: ")
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

var setCmd = &cobra.Command{
	Use:   "set <account> [value]",
	Short: "Store a secret, replacing any existing value",
	Long:  "Store a secret. If value is omitted, it is prompted for or read from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			v, err := readSecret()
			if err != nil {
				return err
			}
			value = v
		}

		store, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		if err := store.SetValue(value, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render(fmt.Sprintf("Secret %q stored", args[0])))
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <account>",
	Short: "Print a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		val, ok, err := store.GetValue(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w for %q", errNoValue, args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "rm <account>",
	Aliases: []string{"delete"},
	Short:   "Remove a stored secret",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		if err := store.RemoveValue(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render(fmt.Sprintf("Secret %q removed", args[0])))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every secret in the configured group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return errors.New("refusing to clear without --yes")
		}

		store, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		if err := store.RemoveAllValues(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("All secrets removed"))
		return nil
	},
}

var rotateCmd = &cobra.Command{
	Use:   "rotate <account> <command>",
	Short: "Replace a secret with the output of a command",
	Long:  "Run command with /bin/sh and store its stdout as the new value. The old value is kept if the command fails.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, done, err := openStore()
		if err != nil {
			return err
		}
		defer done()

		if err := store.Rotate(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), okStyle.Render(fmt.Sprintf("Secret %q rotated", args[0])))
		return nil
	},
}

func init() {
	clearCmd.Flags().Bool("yes", false, "confirm removal of every secret in the group")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(rotateCmd)
}
