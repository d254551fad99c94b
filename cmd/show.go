package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/cardsync/internal/ansi"
	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/config"
	"github.com/arcanaland/cardsync/internal/scryfall"
)

var showFlags struct {
	set        string
	fuzzy      bool
	noArt      bool
	width      int
	titleStyle string
}

var showCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Display a card with ANSI art",
	Long: `Show looks a card up on Scryfall and prints its details next to the card
image rendered as ANSI half-block art. Rendered art is cached under
$XDG_CACHE_HOME/cardsync/ansi_cache.

Examples:
  cardsync show "Cloud, Ex-SOLDIER"
  cardsync show "sol rng" --fuzzy
  cardsync show "Sol Ring" --set fic --no-art`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := strings.Join(args, " ")

		style, err := titleStyle(showFlags.titleStyle)
		if err != nil {
			return err
		}

		client := newScryfall()
		raw, err := client.Named(ctx, name, showFlags.set, showFlags.fuzzy)
		if err != nil {
			if errors.Is(err, scryfall.ErrNotFound) && !showFlags.fuzzy {
				return fmt.Errorf("no card named %q (try --fuzzy)", name)
			}
			return err
		}
		c := loadOverrides("", false).Apply(card.Normalize(raw))

		art := ""
		if !showFlags.noArt && len(c.ImageURLs) > 0 {
			art, err = cardArt(cmd, client, c.ImageURLs[0])
			if err != nil {
				logger.Warn("could not render card art", "url", c.ImageURLs[0], "err", err)
				art = ""
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		ansi.SideBySide(out, art, cardInfo(c, style, infoWidth(art)))
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	f := showCmd.Flags()
	f.StringVarP(&showFlags.set, "set", "s", "", "printing from this set")
	f.BoolVarP(&showFlags.fuzzy, "fuzzy", "f", false, "fuzzy name match")
	f.BoolVar(&showFlags.noArt, "no-art", false, "do not render the card image")
	f.IntVarP(&showFlags.width, "width", "w", 32, "art width in terminal columns")
	f.StringVar(&showFlags.titleStyle, "title-style", "", "title style")
}

// cardArt downloads and renders the image at url, using the ANSI cache.
func cardArt(cmd *cobra.Command, client *scryfall.Client, url string) (string, error) {
	width := showFlags.width
	if width <= 0 {
		width = 32
	}
	trueColor := !colorize.NoColor
	cacheDir := filepath.Join(config.GetCacheDir(), "ansi_cache")
	key := fmt.Sprintf("%s@%d", url, width)

	return ansi.Cached(cacheDir, key, func() (string, error) {
		data, err := client.Download(cmd.Context(), url)
		if err != nil {
			return "", err
		}
		img, err := ansi.Decode(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		return ansi.Render(img, width, ansi.HeightFor(img, width), trueColor), nil
	})
}

// infoWidth is the room left for text to the right of the art.
func infoWidth(art string) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	artWidth := 0
	for _, line := range strings.Split(art, "\n") {
		artWidth = max(artWidth, ansi.Width(line))
	}
	return max(width-artWidth-8, 20)
}

func cardInfo(c card.Card, style card.TitleStyle, width int) []string {
	label := func(name string) string { return colorize.CyanString("%-10s", name+":") }
	value := func(format string, a ...any) string { return colorize.HiWhiteString(format, a...) }

	lines := []string{
		label("Card") + value("%s", c.Title(style)),
		label("Printing") + value("%s #%s · %s", c.Set, c.CollectorNumber, c.Rarity),
	}
	if c.ManaCost != "" {
		lines = append(lines, label("Cost")+value("%s", c.ManaCost))
	}
	lines = append(lines, label("Type")+value("%s", c.TypeLine))
	if c.Power != "" || c.Toughness != "" {
		lines = append(lines, label("P/T")+value("%s/%s", c.Power, c.Toughness))
	}
	if len(c.Procurement) > 0 {
		lines = append(lines, label("Sources")+value("%s", strings.Join(c.Procurement, ", ")))
	}
	if c.Artist != "" {
		lines = append(lines, label("Artist")+value("%s", c.Artist))
	}
	if c.ReleasedAt != "" {
		lines = append(lines, label("Released")+value("%s", c.ReleasedAt))
	}
	if c.ScryfallURI != "" {
		lines = append(lines, label("Scryfall")+c.ScryfallURI)
	}
	if c.OracleText != "" {
		lines = append(lines, "", colorize.CyanString("Oracle text:"))
		lines = append(lines, ansi.Wrap(c.OracleText, width)...)
	}
	return lines
}
