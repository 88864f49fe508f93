package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/podtags/pkg/utils"
)

func TestAppConfig_Paths(t *testing.T) {
	cfg := AppConfig{TargetDomain: "freakonomics.com", StateDir: "/state"}
	_, err := cfg.Validate()
	require.NoError(t, err)

	assert.Equal(t, "http://freakonomics.com/archive/", cfg.ArchiveURL())
	assert.Equal(t, filepath.Join("/state", "data_visited_links.json"), cfg.VisitedLinksPath())
	assert.Equal(t, filepath.Join("/state", "data_raw_tags.json"), cfg.RawTagsPath())
	assert.Equal(t, filepath.Join("/state", "data_located_songs.json"), cfg.LocatedSongsPath())
}

func TestAppConfig_ArchiveURL_CustomScheme(t *testing.T) {
	cfg := AppConfig{TargetDomain: "example.com", ArchivePage: "episodes", ArchiveScheme: "https"}
	_, err := cfg.Validate()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/episodes", cfg.ArchiveURL())
}

func TestLoadCatalogCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "client-secret")

	creds, err := LoadCatalogCredentials()

	require.NoError(t, err)
	assert.Equal(t, "client-id", creds.ClientID)
	assert.Equal(t, "client-secret", creds.ClientSecret)
}

func TestLoadCatalogCredentials_Missing(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	_, err := LoadCatalogCredentials()

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrCredentials)
}
