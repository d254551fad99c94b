package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/reconcile"
)

var syncFlags struct {
	database      string
	titleStyle    string
	noUpdate      bool
	dryRun        bool
	overridesFile string
	noOverrides   bool
}

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync SET [SET...]",
	Short: "Import every printing of one or more sets",
	Long: `Sync fetches every printing of the given sets from Scryfall and upserts them
into the cards database, keyed by printing ID.

New printings are created with every field. Printings already in the database
get a minimal update (title, procurement methods, names, sort key and the
snapshot fields) unless --no-update is given, in which case they are skipped.

Examples:
  cardsync sync FIN FIC
  cardsync sync FIN --dry-run
  cardsync sync FIC --title-style ff-oracle --overrides fic.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)

	f := syncCmd.Flags()
	f.StringVar(&syncFlags.database, "db", "", "cards database title (default from config)")
	f.StringVar(&syncFlags.titleStyle, "title-style", "", `title style: "Oracle — FF", "FF — Oracle" or "Oracle only"`)
	f.BoolVar(&syncFlags.noUpdate, "no-update", false, "skip cards that already exist")
	f.BoolVar(&syncFlags.dryRun, "dry-run", false, "look up cards but write nothing")
	f.StringVar(&syncFlags.overridesFile, "overrides", "", "override file (default from config)")
	f.BoolVar(&syncFlags.noOverrides, "no-overrides", false, "ignore the override file")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	style, err := titleStyle(syncFlags.titleStyle)
	if err != nil {
		return err
	}
	overrides := loadOverrides(syncFlags.overridesFile, syncFlags.noOverrides)

	s, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.checkAccess(ctx); err != nil {
		return err
	}
	col, titleField, err := s.openCollection(ctx, pick(syncFlags.database, cfg.CardsDatabase), reconcile.CardSchema())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Cards database: %s (%s)\n", col.Title, col.URL)

	engine := reconcile.NewEngine(s.backend, reconcile.Options{
		CollectionID:   col.ID,
		TitleField:     titleField,
		Style:          style,
		UpdateExisting: cfg.UpdateExisting && !syncFlags.noUpdate,
		DryRun:         syncFlags.dryRun,
	}, logger)

	source := newScryfall()
	total := reconcile.NewReport(reconcile.DefaultPreviewLimit)
	var failedSets []string
	for _, set := range args {
		set = strings.ToUpper(strings.TrimSpace(set))
		if err := ctx.Err(); err != nil {
			break
		}

		raws, err := source.FetchSet(ctx, set)
		if err != nil {
			errColor.Fprintf(out, "%s: fetch failed: %v\n", set, err)
			logger.Error("fetch failed", "set", set, "err", err)
			failedSets = append(failedSets, set)
			continue
		}
		if len(raws) == 0 {
			warnColor.Fprintf(out, "%s: no cards found\n", set)
			continue
		}

		cards := make([]card.Card, 0, len(raws))
		for _, raw := range raws {
			cards = append(cards, overrides.Apply(card.Normalize(raw)))
		}
		report := engine.Reconcile(ctx, cards)
		printSetSummary(out, set, report)
		total.Merge(report)
	}

	printReport(out, total, syncFlags.dryRun)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}
	if len(failedSets) > 0 {
		return fmt.Errorf("could not fetch sets: %s", strings.Join(failedSets, ", "))
	}
	if total.Failed > 0 {
		return fmt.Errorf("%d cards failed", total.Failed)
	}
	return nil
}
