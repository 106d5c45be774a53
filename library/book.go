package library

import (
	"context"
	"fmt"
	"strings"
)

// Chapter is one chapter of a book. Units is nil until content has been
// fetched and an empty non-nil slice once a fetch confirmed it has none.
type Chapter struct {
	Index int
	Title string
	Units []string
}

// Fetched reports whether a load has completed (or delivered) for the chapter.
func (c *Chapter) Fetched() bool { return c.Units != nil }

// NeedsContent reports whether a caller should start a load for the chapter.
func (c *Chapter) NeedsContent() bool { return len(c.Units) == 0 }

// Book holds the chapter list of an opened book. Chapter content is filled in
// on demand and kept for the life of the Book.
type Book struct {
	Title    string
	Chapters []*Chapter
}

// OpenBook fetches the chapter titles of a book without any content.
func OpenBook(ctx context.Context, src Source, title string) (*Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("empty book title: %w", ErrInvalidArgument)
	}
	titles, err := src.ChapterTitles(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("chapter titles for %q: %w", title, err)
	}

	b := &Book{Title: title, Chapters: make([]*Chapter, 0, len(titles))}
	for i, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		b.Chapters = append(b.Chapters, &Chapter{Index: i, Title: t})
	}
	return b, nil
}

// Chapter returns the chapter with the given title, or nil.
func (b *Book) Chapter(title string) *Chapter {
	for _, ch := range b.Chapters {
		if ch.Title == title {
			return ch
		}
	}
	return nil
}

// Position returns the position of the chapter with the given title, or -1.
func (b *Book) Position(title string) int {
	for i, ch := range b.Chapters {
		if ch.Title == title {
			return i
		}
	}
	return -1
}
