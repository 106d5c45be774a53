package library

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Shelf is one genre with its books. Books is nil when the genre could not
// be listed.
type Shelf struct {
	Genre string
	Books []string
	Err   error
}

const catalogConcurrency = 8

// GenresWithBooks lists every genre and fetches their books concurrently. A
// failing genre does not fail the call; its shelf carries the error instead.
func GenresWithBooks(ctx context.Context, cat Catalog, log *zap.Logger) ([]Shelf, error) {
	if log == nil {
		log = zap.NewNop()
	}
	genres, err := cat.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}

	shelves := make([]Shelf, len(genres))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency)
	for i, genre := range genres {
		shelves[i].Genre = genre
		g.Go(func() error {
			books, err := cat.BooksByGenre(gctx, genre)
			if err != nil {
				log.Warn("Unable to list genre", zap.String("genre", genre), zap.Error(err))
				shelves[i].Err = err
				return nil
			}
			if books == nil {
				books = []string{}
			}
			shelves[i].Books = books
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return shelves, nil
}

// Entries flattens shelves into unique book entries, first genre wins.
func Entries(shelves []Shelf) []BookEntry {
	seen := make(map[string]bool)
	var out []BookEntry
	for _, s := range shelves {
		for _, b := range s.Books {
			if seen[b] {
				continue
			}
			seen[b] = true
			out = append(out, BookEntry{Name: b, Genre: s.Genre})
		}
	}
	return out
}
