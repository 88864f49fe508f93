package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

func TestJSONLinkStore_MissingFileIsEmpty(t *testing.T) {
	store := NewJSONLinkStore(filepath.Join(t.TempDir(), "visited.json"))

	err := store.Load()

	require.Error(t, err)
	assert.True(t, IsNotExist(err))
	assert.Equal(t, 0, store.VisitedCount())
}

func TestJSONLinkStore_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visited.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	store := NewJSONLinkStore(path)

	err := store.Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrStoreLoad)
	assert.False(t, IsNotExist(err))
	assert.Equal(t, 0, store.VisitedCount())
}

func TestJSONLinkStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "visited.json")
	store := NewJSONLinkStore(path)

	assert.True(t, store.MarkVisited("http://site.com/podcast/ep1"))
	assert.True(t, store.MarkVisited("http://site.com/2012/01/02/old-ep/"))
	assert.False(t, store.MarkVisited("http://site.com/podcast/ep1"), "duplicate should not be re-added")
	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n    \"http://site.com/podcast/ep1\",\n    \"http://site.com/2012/01/02/old-ep/\"\n]\n", string(data))

	reloaded := NewJSONLinkStore(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.VisitedCount())
	assert.True(t, reloaded.IsVisited("http://site.com/podcast/ep1"))
	assert.False(t, reloaded.IsVisited("http://site.com/podcast/ep2"))
	assert.Equal(t, []string{"http://site.com/podcast/ep1", "http://site.com/2012/01/02/old-ep/"}, reloaded.Links())
}

func TestJSONLinkStore_EmptySaveWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visited.json")
	store := NewJSONLinkStore(path)

	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestJSONTagStore_RoundTripPreservesDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	store := NewJSONTagStore(path)
	tag := models.RawTag{Text: "Daft Punk [One More Time] (from: Discovery)", SourceURL: "http://site.com/podcast/ep1"}

	store.AppendTags(tag, tag)
	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		["Daft Punk [One More Time] (from: Discovery)", "http://site.com/podcast/ep1"],
		["Daft Punk [One More Time] (from: Discovery)", "http://site.com/podcast/ep1"]
	]`, string(data))

	reloaded := NewJSONTagStore(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []models.RawTag{tag, tag}, reloaded.Tags())
}

func TestJSONTagStore_EmptySaveWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	store := NewJSONTagStore(path)

	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestJSONTagStore_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	require.NoError(t, os.WriteFile(path, []byte(`[["only-one"]]`), 0644))
	store := NewJSONTagStore(path)

	err := store.Load()

	require.Error(t, err)
	assert.Empty(t, store.Tags())
}

func TestJSONTagStore_TagsReturnsCopy(t *testing.T) {
	store := NewJSONTagStore(filepath.Join(t.TempDir(), "tags.json"))
	store.AppendTags(models.RawTag{Text: "a", SourceURL: "u"})

	tags := store.Tags()
	tags[0].Text = "mutated"

	assert.Equal(t, "a", store.Tags()[0].Text)
}

func TestJSONURIStore_AddReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "located.json")
	store := NewJSONURIStore(path)

	added := store.AddReported("spotify:track:abc", "spotify:track:def", "spotify:track:abc")
	assert.Equal(t, 2, added)
	assert.True(t, store.IsReported("spotify:track:abc"))
	require.NoError(t, store.Save())

	reloaded := NewJSONURIStore(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"spotify:track:abc", "spotify:track:def"}, reloaded.Reported())
	assert.Equal(t, 0, reloaded.AddReported("spotify:track:def"))
}

func TestWriteJSON_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONURIStore(filepath.Join(dir, "located.json"))
	store.AddReported("spotify:track:abc")

	require.NoError(t, store.Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "located.json", entries[0].Name())
}
