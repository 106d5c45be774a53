package library

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type CachedBook struct {
	Title       string   `json:"title"`
	Chapters    []string `json:"chapters"`
	LastFetched string   `json:"last_fetched"`
}

// CachedSource keeps chapter lists and fetched paragraphs on disk. Absent
// paragraphs are never cached since chapters may still grow on chain.
type CachedSource struct {
	Library
	dir string
	log *zap.Logger
}

func NewCachedSource(lib Library, dir string, log *zap.Logger) *CachedSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedSource{Library: lib, dir: dir, log: log.Named("cache")}
}

// dirName keeps the slug readable and the hash unique per exact title, so
// "Part 1" and "Part 1." never share a directory.
func dirName(title string) string {
	sum := sha1.Sum([]byte(title))
	hash := hex.EncodeToString(sum[:4])
	if s := slug.Make(title); s != "" {
		return s + "-" + hash
	}
	return hash
}

func (c *CachedSource) BookPath(book string) string {
	return filepath.Join(c.dir, dirName(book))
}

func (c *CachedSource) metaPath(book string) string {
	return filepath.Join(c.BookPath(book), "meta.json")
}

func (c *CachedSource) paragraphPath(book, chapter string, index int) string {
	return filepath.Join(c.BookPath(book), dirName(chapter), strconv.Itoa(index)+".txt")
}

func (c *CachedSource) LoadMeta(book string) (CachedBook, error) {
	var meta CachedBook
	f, err := os.Open(c.metaPath(book))
	if err != nil {
		return meta, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&meta)
	return meta, err
}

func (c *CachedSource) SaveMeta(meta CachedBook) error {
	if len(meta.Chapters) == 0 {
		return fmt.Errorf("no chapters to save")
	}
	dir := c.BookPath(meta.Title)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(c.metaPath(meta.Title))
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(meta)
}

func (c *CachedSource) ChapterTitles(ctx context.Context, book string) ([]string, error) {
	if meta, err := c.LoadMeta(book); err == nil && meta.Title == book && len(meta.Chapters) > 0 {
		return meta.Chapters, nil
	}

	titles, err := c.Library.ChapterTitles(ctx, book)
	if err != nil {
		return nil, err
	}
	if len(titles) > 0 {
		err := c.SaveMeta(CachedBook{
			Title:       book,
			Chapters:    titles,
			LastFetched: time.Now().Format(time.RFC3339),
		})
		if err != nil {
			c.log.Warn("Unable to cache chapter list", zap.String("book", book), zap.Error(err))
		}
	}
	return titles, nil
}

func (c *CachedSource) Paragraph(ctx context.Context, book, chapter string, index int) (string, bool, error) {
	path := c.paragraphPath(book, chapter, index)
	data, err := os.ReadFile(path)
	if err == nil && len(data) > 0 {
		return string(data), true, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Debug("Unreadable cached paragraph", zap.String("path", path), zap.Error(err))
	}

	unit, ok, err := c.Library.Paragraph(ctx, book, chapter, index)
	if err != nil || !ok || unit == "" {
		return unit, ok, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		if err := os.WriteFile(path, []byte(unit), 0644); err != nil {
			c.log.Warn("Unable to cache paragraph", zap.String("path", path), zap.Error(err))
		}
	}
	return unit, true, nil
}

// Forget removes everything cached for a book.
func (c *CachedSource) Forget(book string) error {
	return os.RemoveAll(c.BookPath(book))
}
