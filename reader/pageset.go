package reader

import "slices"

// PageSet holds the pages of the current chapter and the page being shown.
// Pages is nil in scroll mode.
type PageSet struct {
	Pages   []string
	Current int

	fragments []string
	layout    layout
	mode      Mode
	maxHeight int
	built     bool
}

// Sync rebuilds the pages when anything that affects them has changed and
// reports whether a rebuild happened. A rebuild always resets Current.
func (ps *PageSet) Sync(fragments []string, s Settings, maxHeight int, measure MeasureFunc) (bool, error) {
	prevMode := ps.mode
	ps.mode = s.Mode
	if s.Mode != ModePage {
		ps.Pages = nil
		ps.Current = 0
		ps.built = false
		return false, nil
	}

	stale := !ps.built ||
		prevMode != ModePage ||
		ps.layout != s.layout() ||
		ps.maxHeight != maxHeight ||
		!slices.Equal(ps.fragments, fragments)
	if !stale {
		return false, nil
	}

	pages, err := Paginate(fragments, measure, maxHeight)
	if err != nil {
		return false, err
	}
	ps.Pages = pages
	ps.Current = 0
	ps.fragments = slices.Clone(fragments)
	ps.layout = s.layout()
	ps.maxHeight = maxHeight
	ps.built = true
	return true, nil
}

// Reset forgets the pages so the next Sync rebuilds them.
func (ps *PageSet) Reset() {
	*ps = PageSet{}
}

func (ps *PageSet) Len() int { return len(ps.Pages) }

// Page returns the current page, or "" when there is none.
func (ps *PageSet) Page() string {
	if ps.Current < 0 || ps.Current >= len(ps.Pages) {
		return ""
	}
	return ps.Pages[ps.Current]
}

func (ps *PageSet) Next() bool {
	if ps.Current+1 >= len(ps.Pages) {
		return false
	}
	ps.Current++
	return true
}

func (ps *PageSet) Prev() bool {
	if ps.Current <= 0 {
		return false
	}
	ps.Current--
	return true
}

// Progress is the fraction of the chapter read, in [0,1].
func (ps *PageSet) Progress() float64 {
	if len(ps.Pages) <= 1 {
		if len(ps.Pages) == 1 {
			return 1
		}
		return 0
	}
	return float64(ps.Current) / float64(len(ps.Pages)-1)
}

// JumpToProgress moves to the page closest to fraction p.
func (ps *PageSet) JumpToProgress(p float64) {
	if len(ps.Pages) == 0 {
		ps.Current = 0
		return
	}
	p = min(max(p, 0), 1)
	ps.Current = int(p*float64(len(ps.Pages)-1) + 0.5)
}

// Goto moves to page i if it exists.
func (ps *PageSet) Goto(i int) bool {
	if i < 0 || i >= len(ps.Pages) {
		return false
	}
	ps.Current = i
	return true
}
