package library

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Source is the read-only origin of book content.
//
// Paragraph must tolerate speculative indices past the end of a chapter and
// report them as absent (ok == false) rather than as an error. The loader
// relies on this to find the end of a chapter.
type Source interface {
	ChapterTitles(ctx context.Context, book string) ([]string, error)
	Paragraph(ctx context.Context, book, chapter string, index int) (string, bool, error)
}

// Catalog lists what a Source can serve.
type Catalog interface {
	Genres(ctx context.Context) ([]string, error)
	BooksByGenre(ctx context.Context, genre string) ([]string, error)
	Authors(ctx context.Context) ([]string, error)
	BooksByAuthor(ctx context.Context, author string) ([]string, error)
}

// Library is a Source that can also enumerate its books.
type Library interface {
	Source
	Catalog
}
