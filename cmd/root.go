package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/config"
	"github.com/arcanaland/cardsync/internal/logging"
	"github.com/arcanaland/cardsync/internal/workspace"
)

var (
	cfg       = config.Default()
	logger    = log.New(io.Discard)
	logCloser io.Closer
)

var rootFlags struct {
	configPath string
	logLevel   string
	logFile    string
	backend    string
	token      string
	parent     string
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cardsync",
	Short: "Sync Scryfall card data into a Notion workspace",
	Long: `Cardsync imports Magic: The Gathering printings from Scryfall into a Notion
database (or a local SQLite workspace) and keeps them up to date.

Existing cards are matched by their Scryfall printing ID. New printings are
created with every field; cards already in the database only get their title,
procurement methods, names, sort key and snapshot fields refreshed, so notes
and other fields you edit by hand are left alone.

Deck lists can be resolved against Scryfall and linked to the cards database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	f := RootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cardsync/config.toml)")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&rootFlags.logFile, "log-file", "", "also write logs to this file (rotated)")
	f.StringVar(&rootFlags.backend, "backend", "", "workspace backend: notion or sqlite")
	f.StringVar(&rootFlags.token, "token", "", "Notion integration token (default $NOTION_TOKEN)")
	f.StringVar(&rootFlags.parent, "parent", "", "Notion parent page ID or URL (default $CARDSYNC_PARENT)")

	RootCmd.AddCommand(validateCmd)
}

// setup loads the config (file, then environment, then flags) and builds the logger.
func setup(cmd *cobra.Command) error {
	c, err := config.LoadConfig(rootFlags.configPath)
	if err != nil {
		return err
	}
	c.ApplyEnv()

	flags := cmd.Flags()
	overrides := []struct {
		name  string
		value string
		dst   *string
	}{
		{"backend", rootFlags.backend, &c.Backend},
		{"token", rootFlags.token, &c.NotionToken},
		{"parent", rootFlags.parent, &c.ParentPage},
		{"log-level", rootFlags.logLevel, &c.LogLevel},
		{"log-file", rootFlags.logFile, &c.LogFile},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.value
		}
	}

	l, closer, err := logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile, Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	cfg, logger, logCloser = c, l, closer
	return nil
}

// Execute runs the root command with ctx and closes the log file afterwards.
func Execute(ctx context.Context) error {
	err := RootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		_ = logCloser.Close()
	}
	return err
}

// Exit codes returned by ExitCode.
const (
	ExitFailure      = 1
	ExitUnauthorized = 2
	ExitForbidden    = 3
	ExitNotFound     = 4
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, workspace.ErrUnauthorized):
		return ExitUnauthorized
	case errors.Is(err, workspace.ErrForbidden):
		return ExitForbidden
	case errors.Is(err, workspace.ErrNotFound):
		return ExitNotFound
	}
	return ExitFailure
}

// pick returns the flag value when set, else the config value.
func pick(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}
