package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"alexandria_reader/library"
	"alexandria_reader/reader"
)

var readCmd = &cobra.Command{
	Use:   "read <book> [chapter]",
	Short: "Print a chapter, or the whole book, to stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRead,
}

var readArgs struct {
	pages  bool
	width  int
	height int
	images string
}

func init() {
	readCmd.Flags().BoolVar(&readArgs.pages, "pages", false, "split chapters into pages")
	readCmd.Flags().IntVar(&readArgs.width, "width", 80, "terminal width in columns")
	readCmd.Flags().IntVar(&readArgs.height, "height", 24, "page height in rows")
	readCmd.Flags().StringVar(&readArgs.images, "images", "", "write images to this directory")
	RootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	book, err := library.OpenBook(ctx, env.lib, args[0])
	if err != nil {
		return err
	}

	chapters := book.Chapters
	if len(args) == 2 {
		ch := book.Chapter(args[1])
		if ch == nil {
			return fmt.Errorf("chapter %q of %q: %w", args[1], book.Title, library.ErrNotFound)
		}
		chapters = []*library.Chapter{ch}
	}

	settings := newSettingsStore().Settings()
	layout := reader.NewTextLayout(settings, readArgs.width)
	loader := newLoader()
	out := cmd.OutOrStdout()

	var errs error
	for _, ch := range chapters {
		err := loader.Run(ctx, book.Title, ch.Title, library.Callbacks{
			OnUnit: func(units []string) { ch.Units = units },
		})
		if err != nil {
			if ctx.Err() != nil {
				return multierr.Append(errs, ctx.Err())
			}
			errs = multierr.Append(errs, err)
			continue
		}

		fmt.Fprintf(out, "# %s\n\n", ch.Title)
		if err := printChapter(out, ch, layout); err != nil {
			errs = multierr.Append(errs, err)
		}
		if readArgs.images != "" {
			errs = multierr.Append(errs, saveImages(readArgs.images, ch))
		}
	}
	return errs
}

func printChapter(out io.Writer, ch *library.Chapter, layout reader.TextLayout) error {
	fragments := reader.Fragments(ch.Units)
	if !readArgs.pages {
		_, err := fmt.Fprintln(out, strings.Join(layout.Render(strings.Join(fragments, "")), "\n"))
		return err
	}

	pages, err := reader.Paginate(fragments, layout.Measure, readArgs.height)
	if err != nil {
		return err
	}
	for i, page := range pages {
		fmt.Fprintln(out, strings.Join(layout.Render(page), "\n"))
		fmt.Fprintf(out, "\n--- %d / %d ---\n\n", i+1, len(pages))
	}
	return nil
}

func saveImages(dir string, ch *library.Chapter) error {
	var errs error
	n := 0
	for _, raw := range ch.Units {
		u := library.Classify(raw)
		if u.Kind != library.UnitImage {
			continue
		}
		n++
		path, err := library.SaveImage(dir, fmt.Sprintf("%s-%03d", slug.Make(ch.Title), n), u)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("image %d of %q: %w", n, ch.Title, err))
			continue
		}
		env.log.Info("Saved image", zap.String("path", path))
	}
	return errs
}
