package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/config"
	"github.com/arcanaland/cardsync/internal/notion"
	"github.com/arcanaland/cardsync/internal/override"
	"github.com/arcanaland/cardsync/internal/scryfall"
	"github.com/arcanaland/cardsync/internal/sqlite"
	"github.com/arcanaland/cardsync/internal/workspace"
)

// localParent is the parent container used by the SQLite backend.
const localParent = "local"

// session is an opened workspace backend plus the parent it writes under.
type session struct {
	backend workspace.Backend
	parent  string
	closer  func() error
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// openBackend opens the backend selected by the config.
func openBackend(cmd *cobra.Command) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		parent := cfg.ParentPage
		if parent == "" {
			parent = localParent
		}
		return &session{backend: store, parent: parent, closer: store.Close}, nil
	}

	token, err := resolveToken(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.ParentPage == "" {
		return nil, fmt.Errorf("no parent page configured: pass --parent, set %s or run 'cardsync config set parent_page <id>'", config.EnvParent)
	}
	parent, err := config.NormalizeID(cfg.ParentPage)
	if err != nil {
		return nil, err
	}
	logger.Debug("using notion backend", "token", config.MaskToken(token), "parent", parent)
	return &session{backend: notion.NewClient(token, cfg.NotionURL, logger), parent: parent}, nil
}

// resolveToken returns the configured token, prompting for it when stdin is a terminal.
func resolveToken(cmd *cobra.Command) (string, error) {
	if cfg.NotionToken != "" {
		return cfg.NotionToken, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no Notion token: pass --token or set %s", config.EnvToken)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Notion integration token: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("error reading token: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", fmt.Errorf("no Notion token given")
	}
	return token, nil
}

// checkAccess verifies the credentials and the parent container. Failures
// keep their sentinel so ExitCode can map them; a parent that cannot be
// opened for any reason other than ErrForbidden maps to ErrNotFound.
func (s *session) checkAccess(ctx context.Context) error {
	if err := s.backend.Verify(ctx); err != nil {
		if errors.Is(err, workspace.ErrUnauthorized) {
			return fmt.Errorf("authentication failed, check your token and workspace: %w", err)
		}
		return err
	}
	if err := s.backend.CheckParent(ctx, s.parent); err != nil {
		const hint = "invite the integration to the page (••• → Add connections)"
		switch {
		case errors.Is(err, workspace.ErrForbidden), errors.Is(err, workspace.ErrNotFound):
			return fmt.Errorf("cannot open parent page %s, %s: %w", s.parent, hint, err)
		}
		return fmt.Errorf("cannot open parent page %s: %w: %w", s.parent, workspace.ErrNotFound, err)
	}
	return nil
}

// openCollection finds or creates the collection titled title and returns it
// with its title field name.
func (s *session) openCollection(ctx context.Context, title string, schema workspace.Schema) (workspace.Collection, string, error) {
	col, err := s.backend.OpenCollection(ctx, s.parent, title, schema)
	if err != nil {
		return workspace.Collection{}, "", fmt.Errorf("error opening database %q: %w", title, err)
	}
	titleField, err := s.backend.TitleFieldName(ctx, col.ID)
	if err != nil {
		return workspace.Collection{}, "", err
	}
	logger.Info("database ready", "title", col.Title, "id", col.ID, "title_field", titleField)
	return col, titleField, nil
}

func newScryfall() *scryfall.Client {
	return scryfall.NewClient(cfg.ScryfallURL, logger)
}

// titleStyle returns the flag style when set, else the configured one.
func titleStyle(flagValue string) (card.TitleStyle, error) {
	return card.ParseTitleStyle(pick(flagValue, cfg.TitleStyle))
}

// loadOverrides reads the override file unless disabled. A missing file is empty.
func loadOverrides(path string, disabled bool) override.Set {
	if disabled {
		return override.Set{}
	}
	path = pick(path, cfg.OverridesFile)
	if path == "" {
		path = override.DefaultFile
	}
	set := override.Load(path)
	logger.Debug("overrides loaded", "path", path, "entries", len(set))
	return set
}
