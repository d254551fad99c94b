package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/reconcile"
)

var addFlags struct {
	set        string
	pick       int
	yes        bool
	database   string
	titleStyle string
	dryRun     bool
}

// errCancelled means the user backed out of a prompt. Nothing was written.
var errCancelled = errors.New("cancelled")

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a single printing to the cards database",
	Long: `Add searches every printing of a card by exact name, lets you pick one and
upserts it into the cards database the same way sync does.

Use --pick N to choose the Nth printing (1-based, as listed) without a prompt,
and --yes to skip the confirmation.

Examples:
  cardsync add "Lightning Bolt"
  cardsync add "Sol Ring" --set fic --pick 1 --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	RootCmd.AddCommand(addCmd)

	f := addCmd.Flags()
	f.StringVarP(&addFlags.set, "set", "s", "", "only consider printings from this set")
	f.IntVar(&addFlags.pick, "pick", 0, "choose the Nth printing instead of prompting")
	f.BoolVarP(&addFlags.yes, "yes", "y", false, "do not ask for confirmation")
	f.StringVar(&addFlags.database, "db", "", "cards database title (default from config)")
	f.StringVar(&addFlags.titleStyle, "title-style", "", "title style")
	f.BoolVar(&addFlags.dryRun, "dry-run", false, "look the card up but write nothing")
}

// printingLabel is the one-line description shown in the picker.
func printingLabel(raw card.Raw) string {
	label := fmt.Sprintf("%s (%s) %s", raw.Name, strings.ToUpper(raw.Set), raw.CollectorNumber)
	var extra []string
	if raw.ReleasedAt != "" {
		extra = append(extra, raw.ReleasedAt)
	}
	if len(raw.PromoTypes) > 0 {
		extra = append(extra, strings.Join(raw.PromoTypes, ", "))
	}
	if len(extra) > 0 {
		label += " [" + strings.Join(extra, "; ") + "]"
	}
	return label
}

// choosePrinting returns the index of the chosen printing, from --pick or a prompt.
func choosePrinting(prints []card.Raw) (int, error) {
	if addFlags.pick != 0 {
		if addFlags.pick < 1 || addFlags.pick > len(prints) {
			return 0, fmt.Errorf("--pick %d is out of range (1-%d)", addFlags.pick, len(prints))
		}
		return addFlags.pick - 1, nil
	}
	if len(prints) == 1 {
		return 0, nil
	}

	opts := make([]huh.Option[int], 0, len(prints)+1)
	for i, raw := range prints {
		opts = append(opts, huh.NewOption(printingLabel(raw), i))
	}
	opts = append(opts, huh.NewOption("Cancel", -1))

	choice := -1
	err := huh.NewSelect[int]().
		Title(fmt.Sprintf("%d printings found", len(prints))).
		Options(opts...).
		Value(&choice).
		Run()
	if errors.Is(err, huh.ErrUserAborted) || (err == nil && choice < 0) {
		return 0, errCancelled
	}
	if err != nil {
		return 0, err
	}
	return choice, nil
}

func confirm(title string) (bool, error) {
	if addFlags.yes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Add").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	name := strings.Join(args, " ")

	style, err := titleStyle(addFlags.titleStyle)
	if err != nil {
		return err
	}

	prints, err := newScryfall().SearchPrints(ctx, name, addFlags.set)
	if err != nil {
		return err
	}
	if len(prints) == 0 {
		return fmt.Errorf("no printings found for %q", name)
	}

	i, err := choosePrinting(prints)
	if errors.Is(err, errCancelled) {
		fmt.Fprintln(out, "Cancelled, nothing written.")
		return nil
	}
	if err != nil {
		return err
	}

	c := loadOverrides("", false).Apply(card.Normalize(prints[i]))
	ok, err := confirm(fmt.Sprintf("Add %q (%s)?", c.Title(style), c.Key()))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Cancelled, nothing written.")
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
	col, titleField, err := s.openCollection(ctx, pick(addFlags.database, cfg.CardsDatabase), reconcile.CardSchema())
	if err != nil {
		return err
	}

	engine := reconcile.NewEngine(s.backend, reconcile.Options{
		CollectionID:   col.ID,
		TitleField:     titleField,
		Style:          style,
		UpdateExisting: cfg.UpdateExisting,
		DryRun:         addFlags.dryRun,
	}, logger)
	ch, _ := engine.Upsert(ctx, c)
	actionColor(ch.Action).Fprintln(out, ch.String())
	if ch.Err != nil {
		return ch.Err
	}
	return nil
}
