package storage

import (
	"github.com/Sriram-PR/podtags/pkg/models"
)

// LinkStore handles episode visitation state
type LinkStore interface {
	// IsVisited reports whether the exact link string was visited in this or a previous run
	IsVisited(link string) bool

	// MarkVisited records a link as visited
	// Returns true if the link was newly added, false if it already existed
	MarkVisited(link string) bool

	// VisitedCount returns the number of visited links
	VisitedCount() int
}

// TagStore handles the append-only raw-tag list
type TagStore interface {
	// AppendTags adds tags to the end of the store, duplicates included
	AppendTags(tags ...models.RawTag)

	// Tags returns a copy of all stored tags in insertion order
	Tags() []models.RawTag
}

// URIStore handles the set of catalog URIs already surfaced to the user
type URIStore interface {
	// IsReported reports whether a URI was surfaced before
	IsReported(uri string) bool

	// AddReported records URIs as surfaced; already-known URIs are ignored
	// Returns the number of URIs newly added
	AddReported(uris ...string) int

	// Reported returns a copy of all reported URIs in insertion order
	Reported() []string
}

// Persister handles the read-once/write-once lifecycle of a store
type Persister interface {
	// Load replaces in-memory state with the contents of the backing file
	// A missing or corrupt file yields an empty store and a non-nil error describing why
	Load() error

	// Save rewrites the backing file with the full in-memory state
	Save() error
}
