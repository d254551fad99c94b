package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/config"
)

// configPath is the file config subcommands read and write.
func configPath() string {
	if rootFlags.configPath != "" {
		return rootFlags.configPath
	}
	return config.GetConfigFilePath()
}

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings in the config file",
	Long: `Commands for reading and writing the cardsync config file.

Keys: ` + strings.Join(config.Keys(), ", "),
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Read the file itself so environment and flag overrides do not leak in.
		c, err := config.LoadConfig(configPath())
		if err != nil {
			return err
		}
		v, err := c.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		c, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, c); err != nil {
			return err
		}
		shown, _ := c.Get(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], shown)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(configPath())
		if err != nil {
			return err
		}
		for _, key := range config.Keys() {
			v, _ := c.Get(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", key, v)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
