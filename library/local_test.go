package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"

	"alexandria_reader/lang"
)

func TestSplitText(t *testing.T) {
	frontMatter := lang.Active().Library.FrontMatter

	tests := []struct {
		name string
		in   string
		want []TextChapter
	}{
		{
			name: "blank line separated",
			in:   "A Title\r\n\r\nChapter 1 The Start\n\nFirst paragraph\ncontinues here.\n\nSecond.\n\nChapter 2\n\nOnly one.\n",
			want: []TextChapter{
				{Title: frontMatter, Paragraphs: []string{"A Title"}},
				{Title: "Chapter 1 The Start", Paragraphs: []string{"First paragraph continues here.", "Second."}},
				{Title: "Chapter 2", Paragraphs: []string{"Only one."}},
			},
		},
		{
			name: "one paragraph per line",
			in:   "第1章 开始\n一\n二\n第2章\n三",
			want: []TextChapter{
				{Title: "第1章 开始", Paragraphs: []string{"一", "二"}},
				{Title: "第2章", Paragraphs: []string{"三"}},
			},
		},
		{
			name: "table of contents is dropped",
			in:   "Chapter 1\nChapter 2\n\nChapter 1\n\nText\n\nChapter 2\n\nMore",
			want: []TextChapter{
				{Title: "Chapter 1", Paragraphs: []string{"Text"}},
				{Title: "Chapter 2", Paragraphs: []string{"More"}},
			},
		},
		{
			name: "repeated headings are numbered",
			in:   "Part 1\n\nA\n\nPart 1\n\nB",
			want: []TextChapter{
				{Title: "Part 1", Paragraphs: []string{"A"}},
				{Title: "Part 1 (2)", Paragraphs: []string{"B"}},
			},
		},
		{
			name: "empty chapter keeps an empty list",
			in:   "Chapter 1\n\nChapter 2\n\nText",
			want: []TextChapter{
				{Title: "Chapter 1", Paragraphs: []string{}},
				{Title: "Chapter 2", Paragraphs: []string{"Text"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitText(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("SplitText() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitText() =\n%#v\nwant\n%#v", got, tt.want)
			}
		})
	}
}

func TestSplitTextGB18030(t *testing.T) {
	encoded, err := simplifiedchinese.GB18030.NewEncoder().String("第1章 开始\n\n你好，世界。")
	if err != nil {
		t.Fatal(err)
	}
	got, err := SplitText(strings.NewReader(encoded))
	if err != nil {
		t.Fatalf("SplitText() error = %v", err)
	}
	want := []TextChapter{{Title: "第1章 开始", Paragraphs: []string{"你好，世界。"}}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitText() = %#v, want %#v", got, want)
	}
}

func writeBook(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalSource(t *testing.T) {
	root := t.TempDir()
	writeBook(t, filepath.Join(root, "Fantasy", "Tolkien - The Hobbit.txt"),
		"Chapter 1 An Unexpected Party\n\nIn a hole in the ground.\n\nThere lived a hobbit.\n")
	writeBook(t, filepath.Join(root, "Fantasy", "deep", "Anonymous - Chapter 10.txt"), "Chapter 1\n\nx")
	writeBook(t, filepath.Join(root, "Anonymous - Chapter 9.txt"), "Chapter 1\n\ny")
	writeBook(t, filepath.Join(root, "notes.md"), "ignored")

	src := NewLocalSource([]string{root}, nil)
	ctx := context.Background()

	genres, err := src.Genres(ctx)
	if err != nil {
		t.Fatalf("Genres() error = %v", err)
	}
	if want := []string{"Fantasy", lang.Active().Library.LocalGenre}; !slices.Equal(genres, want) {
		t.Errorf("Genres() = %v, want %v", genres, want)
	}

	books, _ := src.BooksByGenre(ctx, "Fantasy")
	if want := []string{"Chapter 10", "The Hobbit"}; !slices.Equal(books, want) {
		t.Errorf("BooksByGenre() = %v, want %v", books, want)
	}

	authors, _ := src.Authors(ctx)
	if want := []string{"Anonymous", "Tolkien"}; !slices.Equal(authors, want) {
		t.Errorf("Authors() = %v, want %v", authors, want)
	}
	byAuthor, _ := src.BooksByAuthor(ctx, "Anonymous")
	if want := []string{"Chapter 9", "Chapter 10"}; !slices.Equal(byAuthor, want) {
		t.Errorf("BooksByAuthor() = %v, want %v (natural order)", byAuthor, want)
	}

	titles, err := src.ChapterTitles(ctx, "The Hobbit")
	if err != nil || !slices.Equal(titles, []string{"Chapter 1 An Unexpected Party"}) {
		t.Fatalf("ChapterTitles() = %v, %v", titles, err)
	}

	rec := &recorder{}
	if err := NewLoader(src, nil).Run(ctx, "The Hobbit", titles[0], rec.callbacks()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []string{"In a hole in the ground.", "There lived a hobbit."}; !slices.Equal(rec.last(), want) {
		t.Errorf("loaded %v, want %v", rec.last(), want)
	}

	if _, err := src.ChapterTitles(ctx, "Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ChapterTitles(missing) error = %v, want ErrNotFound", err)
	}
	if _, ok, err := src.Paragraph(ctx, "The Hobbit", "No Such Chapter", 0); ok || err != nil {
		t.Errorf("Paragraph(unknown chapter) = %v, %v, want absent", ok, err)
	}
}

func TestLocalSourceRescan(t *testing.T) {
	root := t.TempDir()
	src := NewLocalSource([]string{root}, nil)
	if books, _ := src.BooksByGenre(context.Background(), lang.Active().Library.LocalGenre); len(books) != 0 {
		t.Fatalf("empty library lists %v", books)
	}

	writeBook(t, filepath.Join(root, "New.txt"), "Chapter 1\n\nfresh")
	if err := src.Scan(); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	books, _ := src.BooksByGenre(context.Background(), lang.Active().Library.LocalGenre)
	if !slices.Equal(books, []string{"New"}) {
		t.Errorf("after Scan() = %v, want [New]", books)
	}
}
