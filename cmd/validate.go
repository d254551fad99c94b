package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate an override file or a deck list",
	Long: `Validate checks an override file (.json, .yaml or .yml) or a plain-text deck
list. Sync and deck import quietly ignore entries they cannot use; validate
reports each of them as an error or a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out := cmd.OutOrStdout()

		// Check if path exists
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}

		kind := "Deck list"
		if validator.IsOverrideFile(path) {
			kind = "Override file"
		}

		v := validator.NewValidator(path)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}

		fmt.Fprintln(out, "Validation Results:")
		fmt.Fprintln(out, "-------------------")

		if len(results.Errors) == 0 {
			fmt.Fprintf(out, "✅ %s '%s' is valid.\n", kind, path)
		} else {
			fmt.Fprintf(out, "❌ %s '%s' has %d validation errors:\n", kind, path, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Fprintf(out, "%d. %s\n", i+1, err)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Fprintln(out, "\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Fprintf(out, "%d. %s\n", i+1, warn)
			}
		}

		if len(results.Errors) > 0 {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}
