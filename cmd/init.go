package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/config"
)

var initFlags struct {
	interactive bool
	titleStyle  string
	cardsDB     string
	decksDB     string
	sqlitePath  string
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the config file",
	Long: `Init writes the config file, taking values from the flags given (including
--backend, --token and --parent). With --interactive the values are asked for.

Examples:
  cardsync init --parent https://www.notion.so/My-Page-0123456789abcdef0123456789abcdef
  cardsync init --backend sqlite --sqlite-path ./cards.db
  cardsync init -i`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		c, err := config.LoadConfig(path)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		set := map[string]string{}
		for flag, key := range map[string]string{
			"backend":     "backend",
			"token":       "notion_token",
			"parent":      "parent_page",
			"title-style": "title_style",
			"db":          "cards_database",
			"decks-db":    "decks_database",
			"sqlite-path": "sqlite_path",
		} {
			if flags.Changed(flag) {
				v, _ := flags.GetString(flag)
				set[key] = v
			}
		}
		for key, v := range set {
			if err := c.Set(key, v); err != nil {
				return err
			}
		}

		if initFlags.interactive {
			if err := promptConfig(c); err != nil {
				return err
			}
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := config.Save(path, c); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Config file written to:", path)
		if c.Backend == config.BackendNotion && c.ParentPage == "" {
			warnColor.Fprintln(out, "No parent page set yet: run 'cardsync config set parent_page <page URL>'")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)

	f := initCmd.Flags()
	f.BoolVarP(&initFlags.interactive, "interactive", "i", false, "ask for each setting")
	f.StringVar(&initFlags.titleStyle, "title-style", "", "title style")
	f.StringVar(&initFlags.cardsDB, "db", "", "cards database title")
	f.StringVar(&initFlags.decksDB, "decks-db", "", "decks database title")
	f.StringVar(&initFlags.sqlitePath, "sqlite-path", "", "SQLite workspace file")
}

// promptConfig asks for the settings a first run needs.
func promptConfig(c *config.Config) error {
	styles := make([]huh.Option[string], 0, len(card.TitleStyles))
	for _, s := range card.TitleStyles {
		styles = append(styles, huh.NewOption(string(s), string(s)))
	}
	token := c.NotionToken
	parent := c.ParentPage

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Backend").
				Options(huh.NewOption("Notion", config.BackendNotion), huh.NewOption("Local SQLite file", config.BackendSQLite)).
				Value(&c.Backend),
			huh.NewSelect[string]().
				Title("Title style").
				Options(styles...).
				Value(&c.TitleStyle),
			huh.NewConfirm().
				Title("Update cards that already exist?").
				Value(&c.UpdateExisting),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Notion integration token").
				EchoMode(huh.EchoModePassword).
				Value(&token),
			huh.NewInput().
				Title("Parent page ID or URL").
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := config.NormalizeID(s)
					return err
				}).
				Value(&parent),
			huh.NewInput().
				Title("Cards database title").
				Value(&c.CardsDatabase),
			huh.NewInput().
				Title("Decks database title").
				Value(&c.DecksDatabase),
		).WithHideFunc(func() bool { return c.Backend != config.BackendNotion }),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errCancelled
		}
		return err
	}

	c.NotionToken = token
	return c.Set("parent_page", parent)
}
