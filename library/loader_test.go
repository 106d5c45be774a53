package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubParagraph struct {
	text  string
	err   error
	panic bool
}

// stubSource serves fixed paragraphs; indices not in the map are absent.
type stubSource struct {
	mu         sync.Mutex
	titles     []string
	paragraphs map[int]stubParagraph
	calls      []int
	hook       func(index int)
}

func paragraphs(units ...string) map[int]stubParagraph {
	m := make(map[int]stubParagraph)
	for i, u := range units {
		if u != "" {
			m[i] = stubParagraph{text: u}
		}
	}
	return m
}

func (s *stubSource) ChapterTitles(_ context.Context, book string) ([]string, error) {
	if s.titles == nil {
		return nil, ErrNotFound
	}
	return s.titles, nil
}

func (s *stubSource) Paragraph(_ context.Context, _, _ string, index int) (string, bool, error) {
	s.mu.Lock()
	s.calls = append(s.calls, index)
	p, ok := s.paragraphs[index]
	hook := s.hook
	s.mu.Unlock()

	if hook != nil {
		hook(index)
	}
	if !ok {
		return "", false, nil
	}
	if p.panic {
		panic("paragraph exploded")
	}
	if p.err != nil {
		return "", false, p.err
	}
	return p.text, true, nil
}

func (s *stubSource) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// recorder collects callbacks in the order they fire.
type recorder struct {
	mu     sync.Mutex
	units  [][]string
	done   int
	errs   []error
	events []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnUnit: func(units []string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.units = append(r.units, units)
			r.events = append(r.events, "unit")
		},
		OnDone: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.done++
			r.events = append(r.events, "done")
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
			r.events = append(r.events, "error")
		},
	}
}

func (r *recorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.units) == 0 {
		return nil
	}
	return r.units[len(r.units)-1]
}

// checkPrefixes verifies every delivery extends the previous one.
func checkPrefixes(t *testing.T, deliveries [][]string) {
	t.Helper()
	for i := 1; i < len(deliveries); i++ {
		prev, cur := deliveries[i-1], deliveries[i]
		if len(cur) < len(prev) || !slices.Equal(cur[:len(prev)], prev) {
			t.Fatalf("delivery %d = %v does not extend %v", i, cur, prev)
		}
	}
}

func TestRunLoadsChapter(t *testing.T) {
	tests := []struct {
		name     string
		source   map[int]stubParagraph
		want     []string
		attempts int
	}{
		{"empty chapter", nil, []string{}, 3},
		{"two paragraphs", paragraphs("A", "B"), []string{"A", "B"}, 5},
		{"short gap is skipped", paragraphs("A", "", "", "B"), []string{"A", "B"}, 7},
		{"gap of three ends the chapter", paragraphs("A", "", "", "", "B"), []string{"A"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{paragraphs: tt.source}
			rec := &recorder{}
			if err := NewLoader(src, nil).Run(context.Background(), "Book", "One", rec.callbacks()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := src.attempts(); got != tt.attempts {
				t.Errorf("attempts = %d, want %d", got, tt.attempts)
			}
			got := rec.last()
			if got == nil || !slices.Equal(got, tt.want) {
				t.Errorf("final units = %#v, want %#v", got, tt.want)
			}
			if rec.done != 1 {
				t.Errorf("OnDone called %d times, want 1", rec.done)
			}
			if rec.events[len(rec.events)-1] != "done" {
				t.Errorf("last event = %q, want done", rec.events[len(rec.events)-1])
			}
			if len(rec.errs) != 0 {
				t.Errorf("unexpected errors: %v", rec.errs)
			}
			checkPrefixes(t, rec.units)
		})
	}
}

func TestRunTreatsFailuresAsAbsent(t *testing.T) {
	src := &stubSource{paragraphs: map[int]stubParagraph{
		0: {text: "A"},
		1: {err: errors.New("node unavailable")},
		2: {panic: true},
		3: {text: "B"},
	}}
	rec := &recorder{}
	if err := NewLoader(src, nil).Run(context.Background(), "Book", "One", rec.callbacks()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rec.last(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("final units = %v, want [A B]", got)
	}
	if len(rec.errs) != 0 {
		t.Errorf("fetch failures must not reach OnError, got %v", rec.errs)
	}
}

func TestRunMaxMisses(t *testing.T) {
	src := &stubSource{paragraphs: paragraphs("A", "", "B")}
	rec := &recorder{}
	l := NewLoader(src, nil)
	l.MaxMisses = 1
	if err := l.Run(context.Background(), "Book", "One", rec.callbacks()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rec.last(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("final units = %v, want [A]", got)
	}
	if got := src.attempts(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestRunCancelledMidFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &stubSource{paragraphs: paragraphs("A", "B", "C")}
	src.hook = func(index int) {
		if index == 1 {
			cancel()
		}
	}
	rec := &recorder{}
	err := NewLoader(src, nil).Run(ctx, "Book", "One", rec.callbacks())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if len(rec.units) != 1 || !slices.Equal(rec.units[0], []string{"A"}) {
		t.Errorf("deliveries = %v, want only [A]", rec.units)
	}
	if rec.done != 0 || len(rec.errs) != 0 {
		t.Errorf("callbacks after cancel: done=%d errs=%v", rec.done, rec.errs)
	}
}

func TestRunInvalidArguments(t *testing.T) {
	rec := &recorder{}
	err := NewLoader(&stubSource{}, nil).Run(context.Background(), "", "One", rec.callbacks())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Run() error = %v, want ErrInvalidArgument", err)
	}
	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], ErrInvalidArgument) {
		t.Errorf("OnError got %v", rec.errs)
	}
	if len(rec.units) != 0 || rec.done != 0 {
		t.Errorf("unexpected callbacks: units=%v done=%d", rec.units, rec.done)
	}
}

func TestRunCallbackPanicReported(t *testing.T) {
	var reported error
	cb := Callbacks{
		OnUnit:  func([]string) { panic("render failed") },
		OnError: func(err error) { reported = err },
	}
	src := &stubSource{paragraphs: paragraphs("A")}
	if err := NewLoader(src, nil).Run(context.Background(), "Book", "One", cb); err == nil {
		t.Fatal("Run() error = nil, want the recovered panic")
	}
	if reported == nil {
		t.Error("OnError was not called")
	}
}

func TestRunPrefetchKeepsOrder(t *testing.T) {
	units := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	src := &stubSource{paragraphs: paragraphs(units...)}
	rec := &recorder{}
	l := NewLoader(src, nil)
	l.Prefetch = 4
	if err := l.Run(context.Background(), "Book", "One", rec.callbacks()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rec.last(); !slices.Equal(got, units) {
		t.Errorf("final units = %v, want %v", got, units)
	}
	checkPrefixes(t, rec.units)
	if rec.done != 1 {
		t.Errorf("OnDone called %d times, want 1", rec.done)
	}
}

// loadOutcome runs a load and reports the final units and the cursor the
// loader stopped at.
func loadOutcome(t *testing.T, units []string, prefetch int) ([]string, int64) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoader(&stubSource{paragraphs: paragraphs(units...)}, zap.New(core))
	l.Prefetch = prefetch
	rec := &recorder{}
	if err := l.Run(context.Background(), "Book", "One", rec.callbacks()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	checkPrefixes(t, rec.units)
	loaded := logs.FilterMessage("Chapter loaded").All()
	if len(loaded) != 1 {
		t.Fatalf("logged %d completions, want 1", len(loaded))
	}
	cursor, _ := loaded[0].ContextMap()["attempts"].(int64)
	return rec.last(), cursor
}

func TestRunPrefetchMatchesSequential(t *testing.T) {
	tests := []struct {
		name   string
		units  []string
		want   []string
		cursor int64
	}{
		{"miss inside window", []string{"p0", "", "p2", "p3"}, []string{"p0", "p2", "p3"}, 7},
		{"two misses inside window", []string{"p0", "", "", "p3"}, []string{"p0", "p3"}, 7},
		{"content after the miss limit", []string{"p0", "", "", "", "p4", "p5"}, []string{"p0"}, 4},
		{"single paragraph", []string{"p0"}, []string{"p0"}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, seqCursor := loadOutcome(t, tt.units, 1)
			if !slices.Equal(seq, tt.want) || seqCursor != tt.cursor {
				t.Fatalf("sequential = %v at %d, want %v at %d", seq, seqCursor, tt.want, tt.cursor)
			}
			for _, prefetch := range []int{2, 3, 4, 8} {
				got, cursor := loadOutcome(t, tt.units, prefetch)
				if !slices.Equal(got, seq) || cursor != seqCursor {
					t.Errorf("prefetch %d = %v at %d, want %v at %d", prefetch, got, cursor, seq, seqCursor)
				}
			}
		})
	}
}

func TestLoadChapterContentCancel(t *testing.T) {
	release := make(chan struct{})
	src := &stubSource{paragraphs: paragraphs("A", "B")}
	src.hook = func(index int) {
		if index == 1 {
			<-release
		}
	}
	rec := &recorder{}
	s := NewLoader(src, nil).LoadChapterContent(context.Background(), "Book", "One", rec.callbacks())

	deadline := time.After(2 * time.Second)
	for src.attempts() < 2 {
		select {
		case <-deadline:
			t.Fatal("loader never reached the second paragraph")
		case <-time.After(time.Millisecond):
		}
	}
	s.Cancel()
	close(release)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish after Cancel")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.done != 0 || len(rec.errs) != 0 {
		t.Errorf("callbacks after cancel: done=%d errs=%v", rec.done, rec.errs)
	}
	if len(rec.units) != 1 {
		t.Errorf("deliveries = %v, want only the first paragraph", rec.units)
	}
}

func TestOpenBook(t *testing.T) {
	src := &stubSource{titles: []string{"Prologue", "", "  Chapter 2 "}}
	book, err := OpenBook(context.Background(), src, "Book")
	if err != nil {
		t.Fatalf("OpenBook() error = %v", err)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(book.Chapters))
	}
	ch := book.Chapter("Chapter 2")
	if ch == nil || ch.Index != 2 || !ch.NeedsContent() || ch.Fetched() {
		t.Errorf("Chapter(\"Chapter 2\") = %+v", ch)
	}
	if pos := book.Position("Prologue"); pos != 0 {
		t.Errorf("Position() = %d, want 0", pos)
	}

	if _, err := OpenBook(context.Background(), &stubSource{}, "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenBook(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := OpenBook(context.Background(), src, " "); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("OpenBook(blank) error = %v, want ErrInvalidArgument", err)
	}
}

func TestRunScenarios(t *testing.T) {
	png := "iVBORw0KGgo" + strings.Repeat("A", 1489)
	sentences := make([]string, 10)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence number %d of the chapter.", i)
	}

	tests := []struct {
		name     string
		units    []string
		kind     UnitKind
		attempts int
	}{
		{"single png page", []string{png}, UnitImage, 4},
		{"ten sentences", sentences, UnitText, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{paragraphs: paragraphs(tt.units...)}
			rec := &recorder{}
			if err := NewLoader(src, nil).Run(context.Background(), "Book", "One", rec.callbacks()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			got := rec.last()
			if len(got) != len(tt.units) || src.attempts() != tt.attempts {
				t.Fatalf("loaded %d units in %d attempts, want %d in %d", len(got), src.attempts(), len(tt.units), tt.attempts)
			}
			for i, u := range got {
				if Classify(u).Kind != tt.kind {
					t.Errorf("unit %d classified as %v, want %v", i, Classify(u).Kind, tt.kind)
				}
			}
			if tt.kind == UnitImage && Classify(got[0]).Format != ImagePNG {
				t.Errorf("format = %q, want png", Classify(got[0]).Format)
			}
		})
	}
}
