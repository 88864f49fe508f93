package catalog

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sv4u/spotigo"

	"github.com/Sriram-PR/podtags/pkg/config"
	"github.com/Sriram-PR/podtags/pkg/models"
	"github.com/Sriram-PR/podtags/pkg/utils"
)

// spotifyAPI is the subset of *spotigo.Client used for searching
type spotifyAPI interface {
	Search(ctx context.Context, query, searchType string, opts *spotigo.SearchOptions) (*spotigo.SearchResponse, error)
}

// SpotifySearcher implements Searcher against the Spotify Web API using client credentials
type SpotifySearcher struct {
	client spotifyAPI
	log    *logrus.Entry
}

// NewSpotifySearcher authenticates with the given credentials and returns a ready searcher
func NewSpotifySearcher(creds *config.CatalogCredentials, log *logrus.Entry) (*SpotifySearcher, error) {
	if creds == nil {
		return nil, fmt.Errorf("%w: no credentials supplied", utils.ErrCredentials)
	}

	auth, err := spotigo.NewClientCredentials(creds.ClientID, creds.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create auth: %w", utils.ErrCredentials, err)
	}
	client, err := spotigo.NewClient(auth)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create spotigo client: %w", utils.ErrCredentials, err)
	}

	return newSpotifySearcher(client, log), nil
}

func newSpotifySearcher(client spotifyAPI, log *logrus.Entry) *SpotifySearcher {
	return &SpotifySearcher{client: client, log: log.WithField("component", "spotify")}
}

// Search runs a free-text search and maps the returned tracks to catalog candidates
func (s *SpotifySearcher) Search(ctx context.Context, query, searchType string, limit int) ([]models.CatalogTrack, error) {
	response, err := s.client.Search(ctx, query, searchType, &spotigo.SearchOptions{Limit: limit})
	if err != nil {
		return nil, newSearchError(query, err)
	}
	if response == nil || response.Tracks == nil {
		return nil, nil
	}

	tracks := make([]models.CatalogTrack, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		if item.ID == "" {
			s.log.WithField("query", query).Debug("Skipping search result without a track id")
			continue
		}
		tracks = append(tracks, toCatalogTrack(item))
	}
	return tracks, nil
}

func toCatalogTrack(t spotigo.Track) models.CatalogTrack {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	album := ""
	if t.Album != nil {
		album = t.Album.Name
	}
	return models.CatalogTrack{
		Artists:    artists,
		Album:      album,
		Name:       t.Name,
		Popularity: t.Popularity,
		URI:        TrackURI(t.ID),
	}
}

// TrackURI builds the canonical "spotify:track:<id>" URI
func TrackURI(id string) string {
	return "spotify:track:" + id
}
