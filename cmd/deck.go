package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/deck"
	"github.com/arcanaland/cardsync/internal/reconcile"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Parse and import deck lists",
	Long:  `Commands for reading plain-text deck lists and linking them to your cards database.`,
}

// deckParseCmd represents the deck parse command
var deckParseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Show how a deck list is parsed",
	Long: `Parse reads a deck list ("-" for stdin) and prints the lines it understood,
grouped into mainboard, sideboard and command zone. Nothing is looked up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readDeckList(cmd, args[0])
		if err != nil {
			return err
		}
		items := deck.Parse(text)
		if len(items) == 0 {
			return fmt.Errorf("no card lines found in %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), itemTable(items))
		return nil
	},
}

var deckImportFlags struct {
	name          string
	dryRun        bool
	noCreate      bool
	cardsDB       string
	decksDB       string
	titleStyle    string
	overridesFile string
	noOverrides   bool
}

// deckImportCmd represents the deck import command
var deckImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Resolve a deck list and link it to the cards database",
	Long: `Import resolves every line of a deck list to a printing, then writes one deck
record whose Mainboard, Sideboard and Command fields relate to the card records.

A line may pin a printing with a set hint: "1 Sol Ring (FIC) 245". Other lines
prefer the set most of the deck has come from, then the newest printing.
Printings missing from the cards database are created unless --no-create is
given. Lines that cannot be resolved are reported and left out.

Examples:
  cardsync deck import terra.txt --name "Terra Precon"
  cardsync deck import - --name Scratch --dry-run < list.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runDeckImport,
}

func init() {
	RootCmd.AddCommand(deckCmd)
	deckCmd.AddCommand(deckParseCmd)
	deckCmd.AddCommand(deckImportCmd)

	f := deckImportCmd.Flags()
	f.StringVarP(&deckImportFlags.name, "name", "n", "", "deck name (default: file name)")
	f.BoolVar(&deckImportFlags.dryRun, "dry-run", false, "resolve and print the deck but write nothing")
	f.BoolVar(&deckImportFlags.noCreate, "no-create", false, "do not create missing card records")
	f.StringVar(&deckImportFlags.cardsDB, "db", "", "cards database title (default from config)")
	f.StringVar(&deckImportFlags.decksDB, "decks-db", "", "decks database title (default from config)")
	f.StringVar(&deckImportFlags.titleStyle, "title-style", "", "title style for created cards")
	f.StringVar(&deckImportFlags.overridesFile, "overrides", "", "override file (default from config)")
	f.BoolVar(&deckImportFlags.noOverrides, "no-overrides", false, "ignore the override file")
}

func readDeckList(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("error reading deck list: %w", err)
	}
	return string(data), nil
}

// deckName returns the --name flag or the file name without its extension.
func deckName(path string) string {
	if deckImportFlags.name != "" {
		return deckImportFlags.name
	}
	if path == "-" {
		return "Imported Deck"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runDeckImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	style, err := titleStyle(deckImportFlags.titleStyle)
	if err != nil {
		return err
	}
	text, err := readDeckList(cmd, args[0])
	if err != nil {
		return err
	}
	items := deck.Parse(text)
	if len(items) == 0 {
		return fmt.Errorf("no card lines found in %s", args[0])
	}

	resolutions := deck.NewResolver(newScryfall(), logger).Resolve(ctx, items)
	overrides := loadOverrides(deckImportFlags.overridesFile, deckImportFlags.noOverrides)
	unresolved := 0
	for i, r := range resolutions {
		if !r.Resolved() {
			unresolved++
			continue
		}
		c := overrides.Apply(*r.Card)
		resolutions[i].Card = &c
	}
	fmt.Fprintln(out, resolutionTable(resolutions))
	if unresolved > 0 {
		warnColor.Fprintf(out, "%d of %d lines could not be resolved and will be left out\n", unresolved, len(resolutions))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("deck import interrupted: %w", err)
	}
	if deckImportFlags.dryRun {
		fmt.Fprintln(out, "[dry run] nothing written")
		return nil
	}

	s, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.checkAccess(ctx); err != nil {
		return err
	}
	cards, cardsTitle, err := s.openCollection(ctx, pick(deckImportFlags.cardsDB, cfg.CardsDatabase), reconcile.CardSchema())
	if err != nil {
		return err
	}
	decks, decksTitle, err := s.openCollection(ctx, pick(deckImportFlags.decksDB, cfg.DecksDatabase), reconcile.DeckSchema(cards.ID))
	if err != nil {
		return err
	}

	linker := reconcile.NewDeckLinker(s.backend, reconcile.DeckOptions{
		CardsCollectionID: cards.ID,
		CardsTitleField:   cardsTitle,
		DecksCollectionID: decks.ID,
		DecksTitleField:   decksTitle,
		Style:             style,
		CreateMissing:     !deckImportFlags.noCreate,
	}, logger)

	name := deckName(args[0])
	res, err := linker.Link(ctx, name, resolutions)
	if err != nil {
		return err
	}

	verb := "Updated"
	if res.Created {
		verb = "Created"
	}
	okColor.Fprintf(out, "%s deck %q: main=%d sideboard=%d command=%d, %d card records created\n",
		verb, name, res.Linked[deck.SectionMain], res.Linked[deck.SectionSideboard], res.Linked[deck.SectionCommand], res.CardsCreated)
	if len(res.Missing) > 0 {
		warnColor.Fprintf(out, "Not in the cards database (left unlinked): %s\n", strings.Join(res.Missing, ", "))
	}
	for _, ch := range res.Failed {
		errColor.Fprintln(out, ch.String())
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d deck cards failed", len(res.Failed))
	}
	return nil
}
