package library

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type entrySource []BookEntry

func (s entrySource) String(i int) string { return s[i].Name + " " + s[i].Author }
func (s entrySource) Len() int            { return len(s) }

// SearchBooks ranks entries by fuzzy match against query. An empty query
// returns every entry in its original order.
func SearchBooks(query string, entries []BookEntry) []BookEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]BookEntry, len(entries))
		copy(out, entries)
		return out
	}

	matches := fuzzy.FindFrom(query, entrySource(entries))
	out := make([]BookEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
