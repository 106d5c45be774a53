package reader

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"alexandria_reader/lang"
)

const (
	baseFontPx   = 16
	minColumns   = 10
	DefaultImage = 6
)

var widthColumns = map[Width]int{
	WidthNarrow: 42,
	WidthNormal: 60,
	WidthWide:   70,
}

var fontPx = map[FontSize]int{
	FontSmall:  15,
	FontMedium: 16,
	FontLarge:  18,
}

var spacingGap = map[LineSpacing]int{
	SpacingCompact: 0,
	SpacingNormal:  1,
	SpacingRelaxed: 2,
}

// TextLayout lays out page HTML as terminal rows.
type TextLayout struct {
	Columns   int // text width in cells
	Gap       int // blank rows between blocks
	ImageRows int // rows taken by an image placeholder
}

// NewTextLayout derives a layout from the reader settings. termWidth caps the
// column count when it is positive.
func NewTextLayout(s Settings, termWidth int) TextLayout {
	s = s.Normalize()
	cols := widthColumns[s.Width] * baseFontPx / fontPx[s.FontSize]
	if termWidth > 0 && cols > termWidth {
		cols = termWidth
	}
	return TextLayout{
		Columns:   max(cols, minColumns),
		Gap:       spacingGap[s.LineSpacing],
		ImageRows: DefaultImage,
	}
}

// Measure returns how many rows Render would produce.
func (l TextLayout) Measure(page string) int {
	return len(l.Render(page))
}

// Render lays out the blocks of page HTML as wrapped lines.
func (l TextLayout) Render(page string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return l.wrap(page)
	}

	var out []string
	doc.Find("body").Children().Each(func(i int, s *goquery.Selection) {
		if i > 0 {
			for range l.Gap {
				out = append(out, "")
			}
		}
		switch goquery.NodeName(s) {
		case "figure", "img":
			out = append(out, l.placeholder(s)...)
		default:
			for _, line := range strings.Split(blockText(s), "\n") {
				out = append(out, l.wrap(line)...)
			}
		}
	})
	return out
}

func (l TextLayout) wrap(line string) []string {
	if line == "" {
		return []string{""}
	}
	cols := max(l.Columns, 1)
	return strings.Split(wrap.String(wordwrap.String(line, cols), cols), "\n")
}

func (l TextLayout) placeholder(s *goquery.Selection) []string {
	format := s.AttrOr("data-format", "jpeg")
	label := runewidth.Truncate(fmt.Sprintf(lang.Active().Reader.ImagePlaceholder, format), l.Columns, "…")
	pad := max((l.Columns-runewidth.StringWidth(label))/2, 0)

	rows := max(l.ImageRows, 1)
	lines := make([]string, rows)
	lines[(rows-1)/2] = strings.Repeat(" ", pad) + label
	return lines
}

// blockText returns the text of a block with <br> turned into newlines.
func blockText(s *goquery.Selection) string {
	var sb strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "br" {
			sb.WriteByte('\n')
			return
		}
		sb.WriteString(c.Text())
	})
	return sb.String()
}
