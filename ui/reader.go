package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	gloss "github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"alexandria_reader/lang"
	"alexandria_reader/library"
	"alexandria_reader/reader"
	"alexandria_reader/utils"
)

// Dots are only drawn for chapters with few pages.
const maxDots = 20

type loadStatus int

const (
	statusIdle loadStatus = iota
	statusLoading
	statusReady
	statusEmpty
	statusError
)

// ReaderModel shows one chapter of an opened book at a time.
type ReaderModel struct {
	Book   *library.Book
	Source string

	loader   *library.Loader
	settings *reader.SettingsStore
	progress utils.ProgressFile
	log      *zap.Logger
	ctx      context.Context

	chapter    int
	resumePage int

	load   *chapterLoad
	status loadStatus
	err    error
	notice string

	fragments []string
	pages     reader.PageSet
	viewport  viewport.Model
	dots      paginator.Model
	spinner   spinner.Model

	Width  int
	Height int
}

type ReaderDeps struct {
	Loader   *library.Loader
	Settings *reader.SettingsStore
	Progress utils.ProgressFile
	Log      *zap.Logger
}

func NewReaderModel(ctx context.Context, book *library.Book, source string, deps ReaderDeps) ReaderModel {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ReaderLoadingStyle.Padding(0)

	dots := paginator.New()
	dots.Type = paginator.Dots
	dots.ActiveDot = PromptStyle.Render("•")
	dots.InactiveDot = StatusMutedStyle.Padding(0).Render("•")

	m := ReaderModel{
		Book:     book,
		Source:   source,
		loader:   deps.Loader,
		settings: deps.Settings,
		progress: deps.Progress,
		log:      log.Named("reader"),
		ctx:      ctx,
		viewport: viewport.New(0, 0),
		dots:     dots,
		spinner:  sp,
	}

	// Resume where the book was left
	if progressMap, err := m.progress.Load(); err == nil {
		if p, ok := utils.GetProgress(progressMap, book.Title, source); ok {
			if pos := book.Position(p.LastChapter); pos >= 0 {
				m.chapter = pos
				m.resumePage = max(p.Page, 0)
			}
		}
	}
	return m
}

// Start opens the current chapter.
func (m ReaderModel) Start() (ReaderModel, tea.Cmd) {
	return m.OpenChapter(m.chapter)
}

func (m ReaderModel) CurrentChapter() *library.Chapter {
	if m.chapter < 0 || m.chapter >= len(m.Book.Chapters) {
		return nil
	}
	return m.Book.Chapters[m.chapter]
}

func (m ReaderModel) ChapterPosition() int { return m.chapter }

// OpenChapter switches to the chapter at pos. A running load is cancelled
// before the new one starts, and chapters already fetched are shown without
// loading again.
func (m ReaderModel) OpenChapter(pos int) (ReaderModel, tea.Cmd) {
	if pos < 0 || pos >= len(m.Book.Chapters) {
		return m, nil
	}
	if pos != m.chapter {
		m.resumePage = 0
	}
	m.Cancel()
	m.chapter = pos
	m.err = nil
	m.notice = ""
	m.pages.Reset()
	m.viewport.GotoTop()

	ch := m.Book.Chapters[pos]
	if !ch.NeedsContent() {
		m.setUnits(ch.Units)
		m.status = statusReady
		m.restorePage()
		m.saveProgress()
		return m, nil
	}

	m.fragments = nil
	m.refresh()
	m.status = statusLoading
	m.load = startChapterLoad(m.ctx, m.loader, m.Book.Title, ch.Title)
	m.saveProgress()
	return m, tea.Batch(m.load.Wait(), m.spinner.Tick)
}

// Cancel stops the chapter load in flight, if any. A chapter left before its
// load finished goes back to unfetched so opening it again reloads it.
func (m *ReaderModel) Cancel() {
	if m.load == nil {
		return
	}
	m.load.Cancel()
	m.load = nil
	if ch := m.CurrentChapter(); ch != nil {
		ch.Units = nil
	}
}

func (m *ReaderModel) setUnits(units []string) {
	m.fragments = reader.Fragments(units)
	m.refresh()
}

func (m ReaderModel) layout() reader.TextLayout {
	l := reader.NewTextLayout(m.settings.Settings(), m.contentWidth())
	if rows := utils.AppConfig.Reader.ImageRows; rows > 0 {
		l.ImageRows = rows
	}
	return l
}

func (m ReaderModel) contentWidth() int {
	return max(m.Width-2*utils.AppConfig.Reader.HorizontalPadding-1, 0)
}

// pageHeight leaves room for the header and the footer.
func (m ReaderModel) pageHeight() int {
	return max(m.Height-2*utils.AppConfig.Reader.VerticalPadding-4, 1)
}

// refresh lays the current fragments out again for the active mode.
func (m *ReaderModel) refresh() {
	s := m.settings.Settings()
	l := m.layout()

	if _, err := m.pages.Sync(m.fragments, s, m.pageHeight(), l.Measure); err != nil {
		m.log.Warn("Pagination failed", zap.Error(err))
	}
	if s.Mode == reader.ModePage {
		m.dots.SetTotalPages(max(m.pages.Len(), 1))
		m.dots.Page = m.pages.Current
		return
	}

	m.viewport.Width = m.contentWidth()
	m.viewport.Height = m.pageHeight()
	m.viewport.SetContent(strings.Join(l.Render(strings.Join(m.fragments, "")), "\n"))
}

func (m *ReaderModel) restorePage() {
	if m.resumePage > 0 && m.pages.Goto(m.resumePage) {
		m.dots.Page = m.pages.Current
	}
	m.resumePage = 0
}

func (m ReaderModel) saveProgress() {
	ch := m.CurrentChapter()
	if ch == nil {
		return
	}
	err := m.progress.Update(m.Book.Title, m.Source, utils.Progress{
		Page:        m.pages.Current,
		LastRead:    time.Now(),
		LastChapter: ch.Title,
		Chapter:     m.chapter,
	})
	if err != nil {
		m.log.Warn("Unable to save progress", zap.String("book", m.Book.Title), zap.Error(err))
	}
}

// Progress is how far into the chapter the reader is, in [0,1].
func (m ReaderModel) Progress() float64 {
	if m.settings.Settings().Mode == reader.ModePage {
		return m.pages.Progress()
	}
	return m.viewport.ScrollPercent()
}

func (m *ReaderModel) JumpToProgress(p float64) {
	p = min(max(p, 0), 1)
	if m.settings.Settings().Mode == reader.ModePage {
		m.pages.JumpToProgress(p)
		m.dots.Page = m.pages.Current
		return
	}
	maxOffset := max(m.viewport.TotalLineCount()-m.viewport.Height, 0)
	m.viewport.SetYOffset(int(p*float64(maxOffset) + 0.5))
}

func (m ReaderModel) updateSettings(fn func(*reader.Settings)) ReaderModel {
	if _, err := m.settings.Update(fn); err != nil {
		m.notice = err.Error()
		m.log.Warn("Unable to save reader settings", zap.Error(err))
	}
	m.refresh()
	return m
}

func (m ReaderModel) Init() tea.Cmd { return nil }

func (m ReaderModel) Update(msg tea.Msg) (ReaderModel, tea.Cmd) {
	switch msg := msg.(type) {
	case unitsMsg:
		if m.load == nil || msg.Session != m.load.ID() {
			return m, nil
		}
		if ch := m.CurrentChapter(); ch != nil {
			ch.Units = msg.Units
		}
		m.setUnits(msg.Units)
		if len(msg.Units) > 0 && m.status == statusLoading {
			m.status = statusReady
		}
		return m, m.load.Wait()

	case loadDoneMsg:
		if m.load == nil || msg.Session != m.load.ID() {
			return m, nil
		}
		m.load = nil
		if len(m.fragments) == 0 {
			m.status = statusEmpty
		} else {
			m.status = statusReady
			m.restorePage()
		}
		m.saveProgress()
		return m, nil

	case loadErrMsg:
		if m.load == nil || msg.Session != m.load.ID() {
			return m, nil
		}
		m.load = nil
		m.status = statusError
		m.err = msg.Err
		if ch := m.CurrentChapter(); ch != nil {
			ch.Units = nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.status != statusLoading && m.load == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m ReaderModel) handleKey(msg tea.KeyMsg) (ReaderModel, tea.Cmd) {
	pageMode := m.settings.Settings().Mode == reader.ModePage

	switch msg.String() {
	case "r":
		if m.status == statusError || m.status == statusEmpty {
			return m.OpenChapter(m.chapter)
		}
	case "ctrl+d", "n": // next chapter
		return m.OpenChapter(m.chapter + 1)
	case "ctrl+u", "p": // previous chapter
		return m.OpenChapter(m.chapter - 1)

	case "right", "l", " ":
		if pageMode {
			if m.pages.Next() {
				m.dots.Page = m.pages.Current
				m.saveProgress()
				return m, nil
			}
			if m.status == statusReady {
				return m.OpenChapter(m.chapter + 1)
			}
			return m, nil
		}
	case "left", "h":
		if pageMode {
			if m.pages.Prev() {
				m.dots.Page = m.pages.Current
				m.saveProgress()
			}
			return m, nil
		}

	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.JumpToProgress(float64(msg.String()[0]-'0') / 9)
		return m, nil

	// Reader settings
	case "+", "=":
		return m.updateSettings(func(s *reader.Settings) { s.FontSize = reader.Cycle(reader.FontSizes, s.FontSize, 1) }), nil
	case "-":
		return m.updateSettings(func(s *reader.Settings) { s.FontSize = reader.Cycle(reader.FontSizes, s.FontSize, -1) }), nil
	case "s":
		return m.updateSettings(func(s *reader.Settings) {
			s.LineSpacing = reader.Cycle(reader.LineSpacings, s.LineSpacing, 1)
		}), nil
	case "f":
		return m.updateSettings(func(s *reader.Settings) {
			s.FontFamily = reader.Cycle(reader.FontFamilies, s.FontFamily, 1)
		}), nil
	case "c":
		return m.updateSettings(func(s *reader.Settings) { s.Theme = reader.Cycle(reader.Themes, s.Theme, 1) }), nil
	case "w":
		return m.updateSettings(func(s *reader.Settings) { s.Width = reader.Cycle(reader.Widths, s.Width, 1) }), nil
	case "[":
		return m.updateSettings(func(s *reader.Settings) { s.Brightness -= 10 }), nil
	case "]":
		return m.updateSettings(func(s *reader.Settings) { s.Brightness += 10 }), nil
	case "m":
		return m.updateSettings(func(s *reader.Settings) { s.Mode = reader.Cycle(reader.Modes, s.Mode, 1) }), nil
	}

	if !pageMode {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ReaderModel) header() string {
	ch := m.CurrentChapter()
	if ch == nil {
		return m.Book.Title
	}
	return runewidth.Truncate(m.Book.Title+" · "+ch.Title, max(m.Width-4, 1), "…")
}

func (m ReaderModel) footer() string {
	s := m.settings.Settings()
	var parts []string
	if s.Mode == reader.ModePage && m.pages.Len() > 0 {
		if m.pages.Len() <= maxDots {
			parts = append(parts, m.dots.View())
		}
		parts = append(parts, lang.PageIndicator(m.pages.Current+1, m.pages.Len()))
	} else if m.viewport.TotalLineCount() > 0 {
		parts = append(parts, fmt.Sprintf("%3.0f%%", m.Progress()*100))
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	} else {
		parts = append(parts, lang.ReaderSettings(string(s.FontSize), string(s.LineSpacing), string(s.Theme),
			string(s.Width), s.Brightness, string(s.Mode)))
	}
	return runewidth.Truncate(strings.Join(parts, "  "), max(m.Width-4, 1), "…")
}

func (m ReaderModel) View() string {
	s := m.settings.Settings()
	pal := ReaderPalette(s)
	style := ReaderStyle(m.Width, s)

	var body string
	switch {
	case m.status == statusError:
		body = ReaderErrorStyle.Width(m.Width).Render(lang.ReaderError(m.err))
	case m.status == statusEmpty:
		body = ReaderLoadingStyle.Width(m.Width).Render(lang.Active().Reader.NoContent)
	case len(m.fragments) == 0:
		text := lang.Active().Reader.LoadingDefault
		if ch := m.CurrentChapter(); ch != nil {
			text = lang.ReaderLoadingTitle(ch.Title)
		}
		body = ReaderLoadingStyle.Width(m.Width).Render(m.spinner.View() + " " + text)
	case s.Mode == reader.ModePage:
		body = style.Render(strings.Join(m.layout().Render(m.pages.Page()), "\n"))
	default:
		body = style.Render(m.viewport.View())
	}

	head := pal.Accent.Width(m.Width).PaddingLeft(2).Render(m.header())
	foot := pal.Muted.Width(m.Width).PaddingLeft(2).Render(m.footer())
	if m.load != nil && len(m.fragments) > 0 {
		foot = pal.Muted.Width(m.Width).PaddingLeft(2).Render(m.spinner.View() + " " + m.footer())
	}

	height := max(m.Height-gloss.Height(head)-gloss.Height(foot), 0)
	body = gloss.Place(m.Width, height, gloss.Left, gloss.Top, body,
		gloss.WithWhitespaceBackground(pal.Text.GetBackground()))
	return gloss.JoinVertical(gloss.Left, head, body, foot)
}
