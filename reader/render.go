package reader

import (
	"strings"

	"golang.org/x/net/html"

	"alexandria_reader/library"
)

type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockImage
)

// Block is a unit of chapter content ready to be laid out.
type Block struct {
	Kind   BlockKind
	Text   string              // paragraph text, or base64 data for images
	Format library.ImageFormat // images only
}

// RenderBlocks classifies raw units into blocks, keeping their order.
func RenderBlocks(units []string) []Block {
	blocks := make([]Block, 0, len(units))
	for _, raw := range units {
		u := library.Classify(raw)
		if u.Kind == library.UnitImage {
			blocks = append(blocks, Block{Kind: BlockImage, Text: u.Text, Format: u.Format})
			continue
		}
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: u.Text})
	}
	return blocks
}

// Fragment returns the HTML for one block. Paragraph text is escaped and
// line breaks become <br/>.
func Fragment(b Block) string {
	if b.Kind == BlockImage {
		return `<figure data-format="` + string(b.Format) + `"><img src="data:` +
			b.Format.MIME() + `;base64,` + b.Text + `"/></figure>`
	}
	lines := strings.Split(strings.ReplaceAll(b.Text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return "<p>" + strings.Join(lines, "<br/>") + "</p>"
}

// Fragments renders all units to HTML fragments, one per unit.
func Fragments(units []string) []string {
	blocks := RenderBlocks(units)
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = Fragment(b)
	}
	return out
}
