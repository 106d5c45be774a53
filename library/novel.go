package library

import (
	"time"

	"alexandria_reader/lang"
)

type BookEntry struct {
	Name     string
	Genre    string
	Author   string
	Current  string    // chapter last read, if any
	LastRead time.Time // zero if never opened
}

// list.Item interface for Bubble Tea
func (b BookEntry) Title() string { return b.Name }
func (b BookEntry) Description() string {
	desc := b.Genre
	if b.Author != "" {
		desc = b.Author + " | " + desc
	}
	if b.Current != "" {
		desc += " | " + lang.Active().Library.LastReadPrefix + b.Current
	}
	return desc
}
func (b BookEntry) FilterValue() string { return b.Name + " | " + b.Author }
