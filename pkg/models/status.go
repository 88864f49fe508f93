package models

// TagOutcome records how the normalizer handled a raw fragment
type TagOutcome string

const (
	TagOutcomeUnset         TagOutcome = ""               // Zero value = unset/unknown
	TagOutcomeTierA         TagOutcome = "tier_a"         // artist [track] (from: album)
	TagOutcomeTierB         TagOutcome = "tier_b"         // artist "track" (from: album)
	TagOutcomeTierC         TagOutcome = "tier_c"         // artist - track, no album
	TagOutcomeFallback      TagOutcome = "fallback"       // Whole fragment used as the track
	TagOutcomeRejectedShort TagOutcome = "rejected_short" // Too short to be a credit
	TagOutcomeRejectedLong  TagOutcome = "rejected_long"  // Matched track exceeds MaxTrackLength
)

// String implements fmt.Stringer for logging
func (o TagOutcome) String() string {
	if o == "" {
		return "unset"
	}
	return string(o)
}

// Accepted returns true if the fragment produced a NormalizedSong
func (o TagOutcome) Accepted() bool {
	switch o {
	case TagOutcomeTierA, TagOutcomeTierB, TagOutcomeTierC, TagOutcomeFallback:
		return true
	}
	return false
}

// LookupOutcome records how the resolver handled a song
type LookupOutcome string

const (
	LookupOutcomeUnset           LookupOutcome = ""                 // Zero value = unset/unknown
	LookupOutcomeNew             LookupOutcome = "new"              // Top match not reported before
	LookupOutcomeAlreadyReported LookupOutcome = "already_reported" // Top match already in the reported set
	LookupOutcomeNoResult        LookupOutcome = "no_result"        // Search returned no candidates
	LookupOutcomeSearchFailed    LookupOutcome = "search_failed"    // Search call returned an error
)

// String implements fmt.Stringer for logging
func (o LookupOutcome) String() string {
	if o == "" {
		return "unset"
	}
	return string(o)
}

// IsValid returns true if the outcome is a known operational value
func (o LookupOutcome) IsValid() bool {
	switch o {
	case LookupOutcomeNew, LookupOutcomeAlreadyReported, LookupOutcomeNoResult, LookupOutcomeSearchFailed:
		return true
	}
	return false
}
