package reader

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// rowsPerParagraph measures one row per <p>.
func rowsPerParagraph(html string) int {
	return strings.Count(html, "<p>")
}

func paras(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("<p>%d</p>", i)
	}
	return out
}

func TestPaginate(t *testing.T) {
	tall := "<p>x</p><p>x</p><p>x</p><p>x</p>"

	tests := []struct {
		name      string
		fragments []string
		maxHeight int
		wantPages int
	}{
		{"no fragments", nil, 10, 0},
		{"everything fits", paras(3), 10, 1},
		{"exact fit", paras(5), 5, 1},
		{"fifty paragraphs five per page", paras(50), 5, 10},
		{"remainder gets its own page", paras(11), 5, 3},
		{"zero height puts each fragment alone", paras(4), 0, 4},
		{"oversized fragment still gets a page", []string{"<p>a</p>", tall, "<p>b</p>"}, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := Paginate(tt.fragments, rowsPerParagraph, tt.maxHeight)
			if err != nil {
				t.Fatalf("Paginate() error = %v", err)
			}
			if pages == nil {
				t.Fatal("Paginate() returned nil pages")
			}
			if len(pages) != tt.wantPages {
				t.Errorf("pages = %d, want %d", len(pages), tt.wantPages)
			}
			if strings.Join(pages, "") != strings.Join(tt.fragments, "") {
				t.Error("pages do not concatenate back to the fragments")
			}
			single := make(map[string]bool)
			for _, f := range tt.fragments {
				single[f] = true
			}
			for i, p := range pages {
				if p == "" {
					t.Errorf("page %d is empty", i)
				}
				if h := rowsPerParagraph(p); h > tt.maxHeight && !single[p] {
					t.Errorf("page %d measures %d > %d", i, h, tt.maxHeight)
				}
			}
		})
	}
}

func TestPaginateGreedy(t *testing.T) {
	// a page only ends when the next fragment would not fit
	pages, err := Paginate(paras(7), rowsPerParagraph, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"<p>0</p><p>1</p><p>2</p>",
		"<p>3</p><p>4</p><p>5</p>",
		"<p>6</p>",
	}
	if strings.Join(pages, "|") != strings.Join(want, "|") {
		t.Errorf("Paginate() = %q, want %q", pages, want)
	}
}

func TestPaginateDoesNotAliasInput(t *testing.T) {
	fragments := paras(4)
	backing := append(make([]string, 0, 10), fragments...)
	if _, err := Paginate(backing, rowsPerParagraph, 2); err != nil {
		t.Fatal(err)
	}
	for i, f := range fragments {
		if backing[i] != f {
			t.Fatalf("fragment %d changed to %q", i, backing[i])
		}
	}
}

func TestPaginateInvalidHeight(t *testing.T) {
	if _, err := Paginate(paras(2), rowsPerParagraph, -1); !errors.Is(err, ErrInvalidHeight) {
		t.Errorf("Paginate(-1) error = %v, want ErrInvalidHeight", err)
	}
	if _, err := Paginate(paras(2), nil, 5); err == nil {
		t.Error("Paginate(nil measure) error = nil")
	}
}
