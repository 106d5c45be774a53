package ui

import (
	gloss "github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"alexandria_reader/reader"
)

// Reader themes, as foreground/background/accent hex colours.
var themeColors = map[reader.Theme][3]string{
	reader.ThemeDay:   {"#2f3441", "#ffffff", "#1e66f5"},
	reader.ThemeNight: {"#f7f7f7", "#15171f", "#89b4fa"},
	reader.ThemeSepia: {"#2f3441", "#f4ecd8", "#8b5e3c"},
}

const maxDim = 80

// dim darkens a colour by the brightness setting, which is a dimming
// percentage capped at 80.
func dim(hex string, brightness int) gloss.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return gloss.Color(hex)
	}
	amount := float64(min(max(brightness, 0), maxDim)) / 100
	return gloss.Color(c.BlendRgb(colorful.Color{}, amount).Clamped().Hex())
}

// Palette is the set of styles the reader draws with.
type Palette struct {
	Text   gloss.Style
	Muted  gloss.Style
	Accent gloss.Style
}

func ReaderPalette(s reader.Settings) Palette {
	cols, ok := themeColors[s.Theme]
	if !ok {
		cols = themeColors[reader.ThemeDay]
	}
	fg, bg, accent := dim(cols[0], s.Brightness), dim(cols[1], s.Brightness), dim(cols[2], s.Brightness)
	return Palette{
		Text:   gloss.NewStyle().Foreground(fg).Background(bg),
		Muted:  gloss.NewStyle().Foreground(fg).Background(bg).Faint(true),
		Accent: gloss.NewStyle().Foreground(accent).Background(bg).Bold(true),
	}
}

func ReaderStyle(width int, s reader.Settings) gloss.Style {
	return ReaderPalette(s).Text.
		Width(width).
		PaddingLeft(2).
		PaddingRight(1).
		PaddingTop(1)
}

var ReaderLoadingStyle = gloss.NewStyle().
	Foreground(gloss.Color("#89b4fa")).
	Padding(2).
	Align(gloss.Center)

var ReaderErrorStyle = gloss.NewStyle().
	Foreground(gloss.Color("#f38ba8")).
	Padding(2).
	Align(gloss.Center)

const (
	TabSpacing    = 4
	TabPaddingTop = 1
	TabPaddingBot = 0
	ListMaxWidth  = 60
)

// Tab styles
var (
	ActiveTabStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa")).
			Padding(TabPaddingTop, TabSpacing, TabPaddingBot, TabSpacing).
			Align(gloss.Center)

	InactiveTabStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70")).
				Padding(TabPaddingTop, TabSpacing, TabPaddingBot, TabSpacing).
				Align(gloss.Center)
)

// List container style
var ListStyle = gloss.NewStyle().
	Align(gloss.Left).
	Padding(1, 4)

// Listed item styles
var (
	SelectedTitleStyle = gloss.NewStyle().
				Foreground(gloss.Color("#89b4fa")).
				BorderLeft(true).
				BorderStyle(gloss.NormalBorder()).
				BorderForeground(gloss.Color("#89b4fa")).
				PaddingLeft(1).
				Bold(true)

	SelectedDescStyle = gloss.NewStyle().
				Foreground(gloss.Color("#bac2de")).
				BorderLeft(true).
				BorderStyle(gloss.NormalBorder()).
				BorderForeground(gloss.Color("#89b4fa")).
				PaddingLeft(1)

	NormalTitleStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70")).
				PaddingLeft(2)

	NormalDescStyle = gloss.NewStyle().
			Foreground(gloss.Color("#585b70")).
			PaddingLeft(2)
)

var (
	PromptStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa"))

	PromptTextStyle = gloss.NewStyle().
			Foreground(gloss.Color("#cdd6f4"))

	PromptCursorStyle = gloss.NewStyle().
				Foreground(gloss.Color("#cdd6f4"))

	PromptBoxStyle = gloss.NewStyle().
			Border(gloss.RoundedBorder()).
			BorderForeground(gloss.Color("#89b4fa"))

	InputPlaceholderStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70"))
)

// Tabs
var (
	TabsRow = gloss.NewStyle().
		Foreground(gloss.Color("#89b4fa")).
		Align(gloss.Center).
		Bold(true)

	UnderlineRow = gloss.NewStyle().
			Foreground(gloss.Color("#363a4f")).
			Align(gloss.Center)

	List = gloss.NewStyle().
		Align(gloss.Center)

	StatusStyle = gloss.NewStyle().
			Foreground(gloss.Color("#89b4fa")).
			PaddingLeft(4).
			PaddingRight(4).
			PaddingTop(1).
			Align(gloss.Center)

	StatusMutedStyle = gloss.NewStyle().
				Foreground(gloss.Color("#585b70")).
				PaddingLeft(4).
				PaddingTop(1).
				Align(gloss.Center)
)
