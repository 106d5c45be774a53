package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxMisses is how many absent paragraphs in a row end a chapter.
const DefaultMaxMisses = 3

// Callbacks receive the progress of a load. OnUnit always gets a fresh copy
// of everything fetched so far.
type Callbacks struct {
	OnUnit  func(units []string)
	OnDone  func()
	OnError func(err error)
}

func (cb Callbacks) unit(units []string) {
	if cb.OnUnit != nil {
		cb.OnUnit(units)
	}
}

func (cb Callbacks) done() {
	if cb.OnDone != nil {
		cb.OnDone()
	}
}

func (cb Callbacks) fail(err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}

// Loader fetches chapter content one paragraph at a time.
type Loader struct {
	src Source
	log *zap.Logger

	// MaxMisses ends the loop after that many consecutive absent results.
	MaxMisses int
	// Prefetch > 1 fetches that many paragraphs at once after the first one
	// was delivered. Results are still handed out in index order.
	Prefetch int
}

func NewLoader(src Source, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{src: src, log: log.Named("loader"), MaxMisses: DefaultMaxMisses, Prefetch: 1}
}

// Session is one running load of a single chapter.
type Session struct {
	ID      uuid.UUID
	Book    string
	Chapter string

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the session. No callback fires after Cancel returns, except
// one that was already executing.
func (s *Session) Cancel() { s.cancel() }

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// LoadChapterContent starts loading a chapter in the background.
func (l *Loader) LoadChapterContent(ctx context.Context, book, chapter string, cb Callbacks) *Session {
	return l.Start(ctx, uuid.New(), book, chapter, cb)
}

// Start is LoadChapterContent with a caller chosen session id, for callers
// whose callbacks need to know the id before the first one fires.
func (l *Loader) Start(ctx context.Context, id uuid.UUID, book, chapter string, cb Callbacks) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:      id,
		Book:    book,
		Chapter: chapter,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer cancel()
		if err := l.Run(ctx, book, chapter, cb); err != nil && ctx.Err() == nil {
			l.log.Warn("Chapter load failed", zap.Stringer("session", s.ID), zap.Error(err))
		}
	}()
	return s
}

type loadState struct {
	cursor      int
	misses      int
	delivered   bool
	accumulated []string
}

// accept records the outcome of the fetch at the current cursor. It returns
// true when the new unit has to be delivered.
func (st *loadState) accept(unit string, ok bool) bool {
	st.cursor++
	if !ok {
		st.misses++
		return false
	}
	st.misses = 0
	st.accumulated = append(st.accumulated, unit)
	return true
}

func (st *loadState) snapshot() []string {
	out := make([]string, len(st.accumulated))
	copy(out, st.accumulated)
	return out
}

// Run loads a chapter synchronously. It returns ctx.Err() when cancelled, in
// which case no callback has been invoked after the cancellation was seen.
func (l *Loader) Run(ctx context.Context, book, chapter string, cb Callbacks) (err error) {
	st := &loadState{}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loading %q of %q at paragraph %d: %v", chapter, book, st.cursor, r)
			if ctx.Err() == nil {
				cb.fail(err)
			}
		}
	}()

	if strings.TrimSpace(book) == "" || strings.TrimSpace(chapter) == "" {
		err = fmt.Errorf("book %q, chapter %q: %w", book, chapter, ErrInvalidArgument)
		cb.fail(err)
		return err
	}

	maxMisses := l.MaxMisses
	if maxMisses <= 0 {
		maxMisses = DefaultMaxMisses
	}

	for st.misses < maxMisses {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if st.delivered && l.Prefetch > 1 {
			results := l.fetchWindow(ctx, book, chapter, st.cursor, l.Prefetch)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			for _, r := range results {
				if st.accept(r.unit, r.ok) {
					cb.unit(st.snapshot())
				}
				if st.misses >= maxMisses {
					break
				}
			}
			continue
		}

		unit, ok := l.fetch(ctx, book, chapter, st.cursor)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if st.accept(unit, ok) {
			cb.unit(st.snapshot())
			if !st.delivered {
				st.delivered = true
				l.log.Debug("First paragraph delivered", zap.String("book", book), zap.String("chapter", chapter), zap.Int("index", st.cursor-1))
			}
		}
	}

	if st.accumulated == nil {
		st.accumulated = []string{}
	}
	l.log.Debug("Chapter loaded", zap.String("book", book), zap.String("chapter", chapter),
		zap.Int("paragraphs", len(st.accumulated)), zap.Int("attempts", st.cursor))
	cb.unit(st.snapshot())
	cb.done()
	return nil
}

// fetch treats every failure of the source as an absent paragraph.
func (l *Loader) fetch(ctx context.Context, book, chapter string, index int) (unit string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Debug("Paragraph fetch panicked", zap.Int("index", index), zap.Any("panic", r))
			unit, ok = "", false
		}
	}()

	unit, ok, err := l.src.Paragraph(ctx, book, chapter, index)
	if err != nil {
		l.log.Debug("Paragraph fetch failed", zap.String("book", book), zap.String("chapter", chapter), zap.Int("index", index), zap.Error(err))
		return "", false
	}
	if !ok || unit == "" {
		return "", false
	}
	return unit, true
}

type fetchResult struct {
	unit string
	ok   bool
}

func (l *Loader) fetchWindow(ctx context.Context, book, chapter string, from, size int) []fetchResult {
	results := make([]fetchResult, size)
	var g errgroup.Group
	g.SetLimit(size)
	for i := range results {
		g.Go(func() error {
			results[i].unit, results[i].ok = l.fetch(ctx, book, chapter, from+i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
