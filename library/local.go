package library

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"alexandria_reader/lang"
	"alexandria_reader/utils"
)

var (
	chapterPattern = regexp.MustCompile(`^第[0-9一二三四五六七八九十百千~-]+章(?:\s*：?\s*.*)?$`)
	headingPattern = regexp.MustCompile(`^(?:Chapter|CHAPTER|Book|BOOK|Part|PART)\s+[0-9IVXLCDMivxlcdm]+\b.*$`)
)

// TextChapter is a chapter cut out of a plain text book.
type TextChapter struct {
	Title      string   `json:"chapterTitle"`
	Paragraphs []string `json:"paragraphs"`
}

func isHeading(line string) bool {
	return chapterPattern.MatchString(line) || headingPattern.MatchString(line)
}

// SplitText cuts a text book into chapters and paragraphs. Paragraphs are
// separated by blank lines; text without any blank line uses one paragraph
// per line. Text before the first heading becomes a front matter chapter.
func SplitText(r io.Reader) ([]TextChapter, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := utils.SplitLines(data)

	blankSeparated := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			blankSeparated = true
			break
		}
	}

	var (
		chapters []TextChapter
		current  *TextChapter
		para     []string
	)
	flush := func() {
		if len(para) == 0 {
			return
		}
		if current == nil {
			chapters = append(chapters, TextChapter{Title: lang.Active().Library.FrontMatter})
			current = &chapters[len(chapters)-1]
		}
		current.Paragraphs = append(current.Paragraphs, strings.Join(para, " "))
		para = nil
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case isHeading(line):
			flush()
			chapters = append(chapters, TextChapter{Title: line})
			current = &chapters[len(chapters)-1]
		default:
			para = append(para, line)
			if !blankSeparated {
				flush()
			}
		}
	}
	flush()

	return dedupeChapters(chapters), nil
}

// dedupeChapters drops empty chapters whose heading shows up again later (a
// table of contents at the top of the file) and numbers remaining repeats.
func dedupeChapters(chapters []TextChapter) []TextChapter {
	count := make(map[string]int)
	for _, ch := range chapters {
		count[ch.Title]++
	}
	out := make([]TextChapter, 0, len(chapters))
	seen := make(map[string]int)
	for _, ch := range chapters {
		if len(ch.Paragraphs) == 0 && count[ch.Title] > 1 {
			count[ch.Title]--
			continue
		}
		if ch.Paragraphs == nil {
			ch.Paragraphs = []string{}
		}
		seen[ch.Title]++
		if n := seen[ch.Title]; n > 1 {
			ch.Title = fmt.Sprintf("%s (%d)", ch.Title, n)
		}
		out = append(out, ch)
	}
	return out
}

// LocalBook is a text file found in one of the library folders.
type LocalBook struct {
	Title  string
	Author string
	Genre  string
	Path   string

	chapters []TextChapter
}

// LocalSource serves plain text books from local folders. A book's genre is
// the name of the first folder below the library root it lives in.
type LocalSource struct {
	roots []string
	log   *zap.Logger

	mu    sync.Mutex
	books map[string]*LocalBook
}

func NewLocalSource(roots []string, log *zap.Logger) *LocalSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalSource{roots: roots, log: log.Named("local")}
}

// Scan walks the library folders again, forgetting previously split books.
func (s *LocalSource) Scan() error {
	books := make(map[string]*LocalBook)
	for _, root := range s.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".txt") {
				return nil
			}
			b := newLocalBook(root, path)
			if _, dup := books[b.Title]; dup {
				s.log.Warn("Duplicate local book title", zap.String("title", b.Title), zap.String("path", path))
				return nil
			}
			books[b.Title] = b
			return nil
		})
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	s.mu.Lock()
	s.books = books
	s.mu.Unlock()
	return nil
}

// newLocalBook derives metadata from "Author - Title.txt" style file names.
func newLocalBook(root, path string) *LocalBook {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	b := &LocalBook{Title: name, Path: path, Genre: lang.Active().Library.LocalGenre}
	if author, title, ok := strings.Cut(name, " - "); ok {
		b.Author = strings.TrimSpace(author)
		b.Title = strings.TrimSpace(title)
	}
	if rel, err := filepath.Rel(root, filepath.Dir(path)); err == nil && rel != "." {
		b.Genre = strings.Split(rel, string(os.PathSeparator))[0]
	}
	return b
}

func (s *LocalSource) all() (map[string]*LocalBook, error) {
	s.mu.Lock()
	loaded := s.books != nil
	s.mu.Unlock()
	if !loaded {
		if err := s.Scan(); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books, nil
}

func (s *LocalSource) book(title string) (*LocalBook, error) {
	books, err := s.all()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := books[title]
	if !ok {
		return nil, fmt.Errorf("book %q: %w", title, ErrNotFound)
	}
	if b.chapters == nil {
		f, err := os.Open(b.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if b.chapters, err = SplitText(f); err != nil {
			return nil, fmt.Errorf("reading %s: %w", b.Path, err)
		}
		if len(b.chapters) == 0 {
			b.chapters = []TextChapter{}
		}
	}
	return b, nil
}

func (s *LocalSource) titles(match func(*LocalBook) bool) ([]string, error) {
	books, err := s.all()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, b := range books {
		if match(b) {
			out = append(out, b.Title)
		}
	}
	sort.Sort(natural.StringSlice(out))
	return out, nil
}

func (s *LocalSource) Genres(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	if _, err := s.titles(func(b *LocalBook) bool { seen[b.Genre] = true; return false }); err != nil {
		return nil, err
	}
	return sortedKeys(seen), nil
}

func (s *LocalSource) BooksByGenre(_ context.Context, genre string) ([]string, error) {
	return s.titles(func(b *LocalBook) bool { return b.Genre == genre })
}

func (s *LocalSource) Authors(context.Context) ([]string, error) {
	seen := make(map[string]bool)
	if _, err := s.titles(func(b *LocalBook) bool {
		if b.Author != "" {
			seen[b.Author] = true
		}
		return false
	}); err != nil {
		return nil, err
	}
	return sortedKeys(seen), nil
}

func (s *LocalSource) BooksByAuthor(_ context.Context, author string) ([]string, error) {
	return s.titles(func(b *LocalBook) bool { return b.Author == author })
}

func (s *LocalSource) ChapterTitles(_ context.Context, book string) ([]string, error) {
	b, err := s.book(book)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(b.chapters))
	for i, ch := range b.chapters {
		out[i] = ch.Title
	}
	return out, nil
}

func (s *LocalSource) Paragraph(ctx context.Context, book, chapter string, index int) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	b, err := s.book(book)
	if err != nil {
		return "", false, err
	}
	for _, ch := range b.chapters {
		if ch.Title != chapter {
			continue
		}
		if index < 0 || index >= len(ch.Paragraphs) {
			return "", false, nil
		}
		return ch.Paragraphs[index], true, nil
	}
	return "", false, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Sort(natural.StringSlice(out))
	return out
}
