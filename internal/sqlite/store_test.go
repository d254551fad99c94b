package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/cardsync/internal/workspace"
)

var testSchema = workspace.Schema{
	{Name: "Card ID", Kind: workspace.KindText},
	{Name: "Set", Kind: workspace.KindSelect},
	{Name: "CN Sort", Kind: workspace.KindNumber},
	{Name: "Procurement Method", Kind: workspace.KindMultiSelect},
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "workspace.db"), log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openCards(t *testing.T, s *Store) workspace.Collection {
	t.Helper()
	col, err := s.OpenCollection(context.Background(), "parent", "MTG Cards", testSchema)
	require.NoError(t, err)
	return col
}

func TestOpen_CreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"collections", "fields", "records", "record_values"} {
		var n int
		err := s.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestVerifyAndCheckParent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	assert.NoError(t, s.Verify(ctx))
	assert.NoError(t, s.CheckParent(ctx, "parent"))
	assert.ErrorIs(t, s.CheckParent(ctx, ""), workspace.ErrNotFound)
}

func TestOpenCollection_FindsExisting(t *testing.T) {
	s := openTestStore(t)
	first := openCards(t, s)
	second := openCards(t, s)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "MTG Cards", second.Title)

	other, err := s.OpenCollection(context.Background(), "other-parent", "MTG Cards", testSchema)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	title, err := s.TitleFieldName(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Name", title)
}

func TestEnsureSchema_AddsMissingFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	col := openCards(t, s)

	extended := append(workspace.Schema{}, testSchema...)
	extended = append(extended, workspace.Field{Name: "Artist", Kind: workspace.KindText})
	require.NoError(t, s.EnsureSchema(ctx, col.ID, extended))
	require.NoError(t, s.EnsureSchema(ctx, col.ID, extended))

	got, err := s.schema(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, extended, got)

	assert.ErrorIs(t, s.EnsureSchema(ctx, "nope", extended), workspace.ErrNotFound)
}

func TestCreateFindUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	col := openCards(t, s)

	sortKey := 12.0
	id, err := s.CreateRecord(ctx, col.ID, workspace.Fields{
		"Name":               workspace.Title("Cloud"),
		"Card ID":            workspace.Text("abc"),
		"Set":                workspace.Select("FIN"),
		"CN Sort":            workspace.Number(&sortKey),
		"Procurement Method": workspace.MultiSelect([]string{"Booster"}),
	})
	require.NoError(t, err)

	found, ok, err := s.FindByExternalID(ctx, col.ID, "Card ID", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, found)

	_, ok, err = s.FindByExternalID(ctx, col.ID, "Card ID", "zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpdateRecord(ctx, id, workspace.Fields{
		"Name":               workspace.Title("Cloud — Buster"),
		"Procurement Method": workspace.MultiSelect([]string{"Booster", "Collector"}),
	}))

	rec, err := s.record(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Cloud — Buster", rec["Name"].Text)
	assert.Equal(t, []string{"Booster", "Collector"}, rec["Procurement Method"].Items)
	assert.Equal(t, "FIN", rec["Set"].Text, "fields outside the update are preserved")
	require.NotNil(t, rec["CN Sort"].Number)
	assert.Equal(t, 12.0, *rec["CN Sort"].Number)

	n, err := s.Count(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateRecord_RejectsUnknownField(t *testing.T) {
	s := openTestStore(t)
	col := openCards(t, s)
	_, err := s.CreateRecord(context.Background(), col.ID, workspace.Fields{
		"Name":  workspace.Title("Cloud"),
		"Bogus": workspace.Text("x"),
	})
	assert.ErrorContains(t, err, `"Bogus"`)
}

func TestUpdateRecord_Missing(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateRecord(context.Background(), "missing", workspace.Fields{"Name": workspace.Title("x")})
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.db")
	s, err := Open(path, log.New(io.Discard))
	require.NoError(t, err)
	col, err := s.OpenCollection(context.Background(), "parent", "MTG Cards", testSchema)
	require.NoError(t, err)
	_, err = s.CreateRecord(context.Background(), col.ID, workspace.Fields{"Name": workspace.Title("Tifa"), "Card ID": workspace.Text("t1")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, log.New(io.Discard))
	require.NoError(t, err)
	defer s.Close()
	_, ok, err := s.FindByExternalID(context.Background(), col.ID, "Card ID", "t1")
	require.NoError(t, err)
	assert.True(t, ok)
}
