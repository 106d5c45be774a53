package reader

import (
	"encoding/base64"
	"strings"
	"testing"

	"alexandria_reader/library"
)

func TestRenderBlocks(t *testing.T) {
	img := base64.StdEncoding.EncodeToString(append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, 1000)...))
	blocks := RenderBlocks([]string{"first", img, "last"})

	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	if blocks[0].Kind != BlockParagraph || blocks[0].Text != "first" {
		t.Errorf("block 0 = %+v", blocks[0])
	}
	if blocks[1].Kind != BlockImage || blocks[1].Format != library.ImageJPEG {
		t.Errorf("block 1 = %+v", blocks[1])
	}
	if blocks[2].Text != "last" {
		t.Errorf("block 2 = %+v", blocks[2])
	}
}

func TestFragment(t *testing.T) {
	tests := []struct {
		name  string
		block Block
		want  string
	}{
		{"plain", Block{Kind: BlockParagraph, Text: "hello"}, "<p>hello</p>"},
		{"escaped", Block{Kind: BlockParagraph, Text: `<script>alert("x")</script> & co`},
			"<p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; co</p>"},
		{"line breaks", Block{Kind: BlockParagraph, Text: "a\r\nb\nc"}, "<p>a<br/>b<br/>c</p>"},
		{"png image", Block{Kind: BlockImage, Text: "iVBORw0KGgo", Format: library.ImagePNG},
			`<figure data-format="png"><img src="data:image/png;base64,iVBORw0KGgo"/></figure>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fragment(tt.block); got != tt.want {
				t.Errorf("Fragment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFragmentsKeepOrder(t *testing.T) {
	units := []string{"a", "b", "c"}
	got := Fragments(units)
	if strings.Join(got, "") != "<p>a</p><p>b</p><p>c</p>" {
		t.Errorf("Fragments() = %q", got)
	}
	if len(Fragments(nil)) != 0 {
		t.Error("Fragments(nil) should be empty")
	}
}
