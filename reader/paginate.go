// Package reader turns fetched chapter content into something a screen can
// show: typed blocks, escaped fragments and pages sized to a viewport.
package reader

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHeight = errors.New("invalid page height")

// MeasureFunc returns the rendered height of a page's HTML.
type MeasureFunc func(html string) int

// Paginate packs fragments greedily into pages whose measured height does
// not exceed maxHeight. A fragment that does not fit on its own still gets a
// page, so every fragment ends up in exactly one page, in order.
func Paginate(fragments []string, measure MeasureFunc, maxHeight int) ([]string, error) {
	if maxHeight < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeight, maxHeight)
	}
	if measure == nil {
		return nil, errors.New("nil measure function")
	}

	pages := []string{}
	var current []string
	for _, p := range fragments {
		candidate := append(current[:len(current):len(current)], p)
		if measure(strings.Join(candidate, "")) <= maxHeight {
			current = candidate
			continue
		}
		if len(current) > 0 {
			pages = append(pages, strings.Join(current, ""))
		}
		current = []string{p}
	}
	if len(current) > 0 {
		pages = append(pages, strings.Join(current, ""))
	}
	return pages, nil
}
