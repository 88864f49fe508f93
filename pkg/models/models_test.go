package models

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawTag_JSONPair(t *testing.T) {
	tag := RawTag{Text: "Daft Punk [One More Time] (from: Discovery)", SourceURL: "http://site.com/podcast/ep1"}

	data, err := json.Marshal(tag)
	require.NoError(t, err)
	assert.JSONEq(t, `["Daft Punk [One More Time] (from: Discovery)", "http://site.com/podcast/ep1"]`, string(data))

	var got RawTag
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, tag, got)
}

func TestRawTag_UnmarshalRejectsWrongShape(t *testing.T) {
	var tag RawTag
	assert.Error(t, json.Unmarshal([]byte(`["only one"]`), &tag))
	assert.Error(t, json.Unmarshal([]byte(`{"text": "x"}`), &tag))
}

func TestNormalizedSong_Less(t *testing.T) {
	songs := []NormalizedSong{
		{Artist: "b", Track: "a", Album: "a"},
		{Artist: "a", Track: "b", Album: "a"},
		{Artist: "a", Track: "a", Album: "b"},
		{Artist: "a", Track: "a", Album: "a"},
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].Less(songs[j]) })

	assert.Equal(t, []NormalizedSong{
		{Artist: "a", Track: "a", Album: "a"},
		{Artist: "a", Track: "a", Album: "b"},
		{Artist: "a", Track: "b", Album: "a"},
		{Artist: "b", Track: "a", Album: "a"},
	}, songs)
}

func TestNormalizedSong_Query(t *testing.T) {
	song := NormalizedSong{Artist: "Arcade Fire", Track: "Wake Up", Album: "Funeral"}
	assert.Equal(t, "Arcade Fire Funeral Wake Up", song.Query())

	noAlbum := NormalizedSong{Artist: "Arcade Fire", Track: "Wake Up"}
	assert.Equal(t, "Arcade Fire Wake Up", noAlbum.Query())
}

func TestNewResolvedTrack_JoinsArtists(t *testing.T) {
	got := NewResolvedTrack(CatalogTrack{
		Artists: []string{"Daft Punk", "Romanthony"},
		Album:   "Discovery",
		Name:    "One More Time",
		URI:     "spotify:track:abc",
	})
	assert.Equal(t, "Daft Punk, Romanthony", got.Artists)
	assert.Equal(t, "Discovery", got.Album)
	assert.Equal(t, "One More Time", got.TrackName)
	assert.Equal(t, "spotify:track:abc", got.URI)
}

func TestResolveReport_NewURIsAndCount(t *testing.T) {
	report := ResolveReport{
		New: []ResolvedTrack{{URI: "spotify:track:a"}, {URI: "spotify:track:b"}},
		Results: []LookupResult{
			{Outcome: LookupOutcomeNew},
			{Outcome: LookupOutcomeNew},
			{Outcome: LookupOutcomeNoResult},
		},
	}
	assert.Equal(t, []string{"spotify:track:a", "spotify:track:b"}, report.NewURIs())
	assert.Equal(t, 2, report.Count(LookupOutcomeNew))
	assert.Equal(t, 0, report.Count(LookupOutcomeSearchFailed))
}

func TestNormalizeReport_Count(t *testing.T) {
	report := NormalizeReport{Results: []TagResult{
		{Outcome: TagOutcomeTierA},
		{Outcome: TagOutcomeRejectedShort},
		{Outcome: TagOutcomeTierA},
	}}
	assert.Equal(t, 2, report.Count(TagOutcomeTierA))
	assert.Equal(t, 1, report.Count(TagOutcomeRejectedShort))
}
