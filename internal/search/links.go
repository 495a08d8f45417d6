package search

import (
	"errors"
	"fmt"
)

// ErrLinkNotFound is returned when an id was never assigned
var ErrLinkNotFound = errors.New("link not found")

// Link records a surfaced search result and the query that produced it
type Link struct {
	ID    int
	URL   string
	Query string
}

// Links assigns sequential ids to search results for the lifetime of the process.
// Entries are never removed or rewritten.
type Links struct {
	entries []Link
}

// NewLinks creates an empty registry
func NewLinks() *Links {
	return &Links{}
}

// Add records a result and returns its id
func (l *Links) Add(url, query string) int {
	id := len(l.entries)
	l.entries = append(l.entries, Link{ID: id, URL: url, Query: query})
	return id
}

// Get returns the entry with the given id
func (l *Links) Get(id int) (Link, error) {
	if id < 0 || id >= len(l.entries) {
		return Link{}, fmt.Errorf("%w: %d", ErrLinkNotFound, id)
	}
	return l.entries[id], nil
}

// Len returns how many links have been recorded
func (l *Links) Len() int {
	return len(l.entries)
}
