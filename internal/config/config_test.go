package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, BackendNotion, cfg.Backend)
	assert.Equal(t, "MTG Cards", cfg.CardsDatabase)
	assert.True(t, cfg.UpdateExisting)
	assert.Equal(t, filepath.Join("/data", "cardsync", "workspace.db"), cfg.SQLitePath)

	info, err := os.Stat(GetConfigFilePath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadConfig_FileValuesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend = "sqlite"
update_existing = false
title_style = "FF — Oracle"
`), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.False(t, cfg.UpdateExisting)
	assert.Equal(t, "FF — Oracle", cfg.TitleStyle)
	assert.Equal(t, "MTG Decks", cfg.DecksDatabase, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("backend = "), 0600))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "error decoding config file")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	require.NoError(t, cfg.Set("parent_page", "0123456789abcdef0123456789abcdef"))
	require.NoError(t, cfg.Set("update_existing", "false"))
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "01234567-89ab-cdef-0123-456789abcdef", loaded.ParentPage)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvToken, " ntn_from_env ")
	t.Setenv(EnvParent, "")
	cfg := &Config{NotionToken: "file", ParentPage: "file-parent"}
	cfg.ApplyEnv()
	assert.Equal(t, "ntn_from_env", cfg.NotionToken)
	assert.Equal(t, "file-parent", cfg.ParentPage)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = "airtable"
	assert.ErrorContains(t, cfg.Validate(), `unknown backend "airtable"`)

	cfg = Default()
	cfg.TitleStyle = "sideways"
	assert.Error(t, cfg.Validate())
}

func TestGetSet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("notion_token", "ntn_1234567890abcd"))
	got, err := cfg.Get("notion_token")
	require.NoError(t, err)
	assert.Equal(t, "ntn_12…abcd", got)

	require.NoError(t, cfg.Set("title_style", "oracle"))
	assert.Equal(t, "Oracle only", cfg.TitleStyle)

	assert.Error(t, cfg.Set("update_existing", "maybe"))
	assert.Error(t, cfg.Set("nope", "x"))
	_, err = cfg.Get("nope")
	assert.Error(t, err)
	assert.Contains(t, Keys(), "update_existing")
	assert.Contains(t, Keys(), "sqlite_path")
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken(""))
	assert.Equal(t, "token_***", MaskToken("short"))
	assert.Equal(t, "token_***", MaskToken("12345678"))
	assert.Equal(t, "ntn_ab…wxyz", MaskToken("ntn_abcdefghijklmnopqrstuvwxyz"))
}

func TestNormalizeID(t *testing.T) {
	const want = "01234567-89ab-cdef-0123-456789abcdef"
	for _, in := range []string{
		"0123456789abcdef0123456789abcdef",
		"01234567-89ab-cdef-0123-456789abcdef",
		"https://www.notion.so/My-Cards-0123456789abcdef0123456789abcdef?pvs=4",
	} {
		got, err := NormalizeID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := NormalizeID("not-an-id")
	assert.Error(t, err)
}
