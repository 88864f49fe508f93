package process

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/podtags/pkg/models"
)

// minFragmentLength is the longest fragment (in runes) still treated as noise
const minFragmentLength = 3

var (
	// artist [track] (from: album)
	tierARe = regexp.MustCompile(`^\s*([^,;:-]*)[,;:-]?\s*\[([^(]*?)\]\s*\(\s*from:?\s*([^)]*)\)`)
	// artist "track" (from: album), quotes optional
	tierBRe = regexp.MustCompile(`^\s*([^,;:-]*)[,;:-]?\s*"?([^(]*?)"?\s*\(\s*from:?\s*([^)]*)\)`)
	// artist <separator> track, no album
	tierCRe = regexp.MustCompile(`^\s*([\pL\pN_\s.]*)[^\pL\pN_]*([\pL\pN_\s]*)`)
)

// MatchTag splits a cleaned fragment into a song using the tier cascade; first match wins
// The returned outcome is one of the tier outcomes, fallback, or rejected_long
func MatchTag(text string) (models.NormalizedSong, models.TagOutcome) {
	var song models.NormalizedSong
	outcome := models.TagOutcomeFallback

	if m := tierARe.FindStringSubmatch(text); m != nil {
		song = models.NormalizedSong{Artist: m[1], Track: m[2], Album: m[3]}
		outcome = models.TagOutcomeTierA
	} else if m := tierBRe.FindStringSubmatch(text); m != nil {
		song = models.NormalizedSong{Artist: m[1], Track: m[2], Album: m[3]}
		outcome = models.TagOutcomeTierB
	} else if m := tierCRe.FindStringSubmatch(text); m != nil && (strings.TrimSpace(m[1]) != "" || strings.TrimSpace(m[2]) != "") {
		song = models.NormalizedSong{Artist: m[1], Track: m[2]}
		outcome = models.TagOutcomeTierC
	} else {
		song = models.NormalizedSong{Track: text} // Last resort
	}

	song.Artist = strings.TrimSpace(song.Artist)
	song.Track = strings.TrimSpace(song.Track)
	song.Album = strings.TrimSpace(song.Album)

	if utf8.RuneCountInString(song.Track) > models.MaxTrackLength {
		return models.NormalizedSong{}, models.TagOutcomeRejectedLong // Probably a sentence, not a title
	}
	if song.Artist == "" {
		song.Artist = song.Album
	}
	return song, outcome
}

// Normalizer turns raw tags into a deduplicated, sorted song list
type Normalizer struct {
	log *logrus.Entry
}

// NewNormalizer creates a Normalizer
func NewNormalizer(log *logrus.Entry) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize cleans and matches every raw tag, recording one TagResult per input
func (n *Normalizer) Normalize(rawTags []models.RawTag) *models.NormalizeReport {
	report := &models.NormalizeReport{Results: make([]models.TagResult, 0, len(rawTags))}
	unique := make(map[models.NormalizedSong]struct{})

	for _, raw := range rawTags {
		text := CleanFragment(raw.Text)
		result := models.TagResult{Text: text, Source: raw.SourceURL}

		if utf8.RuneCountInString(text) <= minFragmentLength {
			result.Outcome = models.TagOutcomeRejectedShort
			n.log.WithField("url", raw.SourceURL).Debugf("Skipping short fragment: %q", text)
			report.Results = append(report.Results, result)
			continue
		}

		song, outcome := MatchTag(text)
		result.Outcome = outcome
		if !outcome.Accepted() {
			n.log.WithFields(logrus.Fields{"url": raw.SourceURL, "outcome": outcome}).Infof("Failed on: %s", text)
			report.Results = append(report.Results, result)
			continue
		}

		result.Song = &song
		unique[song] = struct{}{}
		report.Results = append(report.Results, result)
	}

	report.Songs = make([]models.NormalizedSong, 0, len(unique))
	for song := range unique {
		report.Songs = append(report.Songs, song)
	}
	sort.Slice(report.Songs, func(i, j int) bool { return report.Songs[i].Less(report.Songs[j]) })

	n.log.WithFields(logrus.Fields{
		"raw_tags":     len(rawTags),
		"unique_songs": len(report.Songs),
		"tier_a":       report.Count(models.TagOutcomeTierA),
		"tier_b":       report.Count(models.TagOutcomeTierB),
		"tier_c":       report.Count(models.TagOutcomeTierC),
		"fallback":     report.Count(models.TagOutcomeFallback),
		"rejected":     report.Count(models.TagOutcomeRejectedShort) + report.Count(models.TagOutcomeRejectedLong),
	}).Infof("The parser was able to find %d unique songs", len(report.Songs))
	return report
}
