package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	gloss "github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"alexandria_reader/lang"
	"alexandria_reader/library"
	"alexandria_reader/utils"
)

const (
	tabHistory = iota
	tabGenres
	tabAuthors
	tabSearch
)

type genreItem struct{ shelf library.Shelf }

func (g genreItem) Title() string { return g.shelf.Genre }
func (g genreItem) Description() string {
	if g.shelf.Books == nil {
		return lang.Active().Library.Unavailable
	}
	return lang.BookCount(len(g.shelf.Books))
}
func (g genreItem) FilterValue() string { return g.shelf.Genre }

type authorItem struct{ name string }

func (a authorItem) Title() string       { return a.name }
func (a authorItem) Description() string { return "" }
func (a authorItem) FilterValue() string { return a.name }

type catalogMsg struct {
	Shelves []library.Shelf
	Authors []string
	Err     error
}

type authorBooksMsg struct {
	Author string
	Books  []string
	Err    error
}

type balanceMsg struct {
	Flow float64
	Err  error
}

// openBookMsg asks the app to open a book in the reader.
type openBookMsg struct {
	Title string
}

type balanceSource interface {
	DonationBalance(ctx context.Context) (float64, error)
}

// BrowseModel is the catalogue screen: reading history, genres, authors and search.
type BrowseModel struct {
	ctx      context.Context
	lib      library.Library
	source   string
	progress utils.ProgressFile
	log      *zap.Logger

	lists     []list.Model
	tabs      []string
	activeTab int
	width     int
	height    int

	shelves    []library.Shelf
	authors    []string
	entries    []library.BookEntry
	loading    bool
	err        error
	status     string
	balance    string
	openGenre  string
	openAuthor string

	search  textinput.Model
	spinner spinner.Model
}

func NewBrowseModel(ctx context.Context, lib library.Library, source string, progress utils.ProgressFile, log *zap.Logger) BrowseModel {
	if log == nil {
		log = zap.NewNop()
	}

	lists := make([]list.Model, 4)
	for i := range lists {
		lists[i] = list.New(nil, &itemDelegate{}, 0, 0)
		listSettings(&lists[i])
		filterStyle(&lists[i])
	}

	ti := textinput.New()
	ti.PromptStyle = PromptStyle.PaddingLeft(1).Bold(true)
	ti.PlaceholderStyle = InputPlaceholderStyle
	ti.TextStyle = PromptTextStyle
	ti.Cursor.Style = PromptCursorStyle
	ti.CharLimit = 80
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = PromptStyle

	m := BrowseModel{
		ctx:      ctx,
		lib:      lib,
		source:   source,
		progress: progress,
		log:      log.Named("browse"),
		lists:    lists,
		loading:  true,
		search:   ti,
		spinner:  sp,
	}
	m.applyLanguage()
	m.RefreshHistory()
	return m
}

func (m *BrowseModel) applyLanguage() {
	texts := lang.Active()
	m.tabs = []string{texts.Tabs.History, texts.Tabs.Genres, texts.Tabs.Authors, texts.Tabs.Search}
	m.search.Prompt = texts.Search.Prompt
	m.search.Placeholder = texts.Search.Placeholder
}

func (m BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.loadCatalogCmd(), m.balanceCmd(), m.spinner.Tick)
}

func (m BrowseModel) loadCatalogCmd() tea.Cmd {
	ctx, lib, log := m.ctx, m.lib, m.log
	return func() tea.Msg {
		shelves, err := library.GenresWithBooks(ctx, lib, log)
		if err != nil {
			return catalogMsg{Err: err}
		}
		authors, err := lib.Authors(ctx)
		if err != nil {
			log.Warn("Unable to list authors", zap.Error(err))
		}
		return catalogMsg{Shelves: shelves, Authors: authors}
	}
}

func (m BrowseModel) balanceCmd() tea.Cmd {
	bs, ok := m.lib.(balanceSource)
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		flow, err := bs.DonationBalance(ctx)
		return balanceMsg{Flow: flow, Err: err}
	}
}

func (m BrowseModel) authorBooksCmd(author string) tea.Cmd {
	ctx, lib := m.ctx, m.lib
	return func() tea.Msg {
		books, err := lib.BooksByAuthor(ctx, author)
		return authorBooksMsg{Author: author, Books: books, Err: err}
	}
}

// entryFor returns what the catalogue knows about a book.
func (m BrowseModel) entryFor(name string) library.BookEntry {
	for _, e := range m.entries {
		if e.Name == name {
			return e
		}
	}
	return library.BookEntry{Name: name}
}

// RefreshHistory reloads the history tab from the progress file.
func (m *BrowseModel) RefreshHistory() {
	progressMap, err := m.progress.Load()
	if err != nil {
		m.log.Warn("Unable to load progress", zap.Error(err))
		return
	}
	recent := utils.Recent(progressMap, m.source)
	items := make([]list.Item, 0, len(recent))
	for _, r := range recent {
		e := m.entryFor(r.Name)
		e.Current = r.LastChapter
		e.LastRead = r.LastRead
		items = append(items, e)
	}
	m.lists[tabHistory].SetItems(items)
}

func (m *BrowseModel) showGenres() {
	m.openGenre = ""
	items := make([]list.Item, len(m.shelves))
	for i, s := range m.shelves {
		items[i] = genreItem{shelf: s}
	}
	m.lists[tabGenres].SetItems(items)
	m.lists[tabGenres].ResetSelected()
}

func (m *BrowseModel) showAuthors() {
	m.openAuthor = ""
	items := make([]list.Item, len(m.authors))
	for i, a := range m.authors {
		items[i] = authorItem{name: a}
	}
	m.lists[tabAuthors].SetItems(items)
	m.lists[tabAuthors].ResetSelected()
}

func bookItems(entries []library.BookEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	return items
}

func (m *BrowseModel) runSearch() {
	results := library.SearchBooks(m.search.Value(), m.entries)
	m.lists[tabSearch].SetItems(bookItems(results))
	m.lists[tabSearch].ResetSelected()
	if strings.TrimSpace(m.search.Value()) != "" {
		m.status = lang.SearchFound(len(results))
	} else {
		m.status = ""
	}
}

func (m *BrowseModel) nextTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	m.status = ""
	if m.activeTab == tabSearch {
		m.search.Focus()
	} else {
		m.search.Blur()
	}
}

func (m *BrowseModel) resize(width, height int) {
	m.width = width
	m.height = height

	availWidth := min(width-8, ListMaxWidth)
	if availWidth < 0 {
		availWidth = ListMaxWidth
	}
	availHeight := max(height-6, 3)
	for i := range m.lists {
		h := availHeight
		if i == tabSearch {
			h = max(availHeight-3, 3)
		}
		m.lists[i].SetSize(availWidth, h)
	}
}

func (m BrowseModel) filtering() bool {
	return m.lists[m.activeTab].FilterState() == list.Filtering
}

func (m BrowseModel) Update(msg tea.Msg) (BrowseModel, tea.Cmd) {
	switch tm := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(tm.Width, tm.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(tm)
		return m, cmd

	case catalogMsg:
		m.loading = false
		if tm.Err != nil {
			m.err = tm.Err
			return m, nil
		}
		m.err = nil
		m.shelves = tm.Shelves
		m.authors = tm.Authors
		m.entries = library.Entries(tm.Shelves)
		m.showGenres()
		m.showAuthors()
		m.RefreshHistory()
		m.runSearch()
		return m, nil

	case authorBooksMsg:
		if tm.Author != m.openAuthor {
			return m, nil
		}
		if tm.Err != nil {
			m.status = lang.LibraryLoadFailed(tm.Err)
			return m, nil
		}
		entries := make([]library.BookEntry, len(tm.Books))
		for i, b := range tm.Books {
			entries[i] = m.entryFor(b)
			entries[i].Author = tm.Author
		}
		m.lists[tabAuthors].SetItems(bookItems(entries))
		m.lists[tabAuthors].ResetSelected()
		m.status = ""
		return m, nil

	case balanceMsg:
		if tm.Err != nil {
			m.log.Debug("Donation balance unavailable", zap.Error(tm.Err))
			return m, nil
		}
		m.balance = lang.DonationBalance(tm.Flow)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(tm)
	}

	var cmd tea.Cmd
	m.lists[m.activeTab], cmd = m.lists[m.activeTab].Update(msg)
	return m, cmd
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (BrowseModel, tea.Cmd) {
	key := msg.String()

	if m.filtering() {
		var cmd tea.Cmd
		m.lists[m.activeTab], cmd = m.lists[m.activeTab].Update(msg)
		return m, cmd
	}

	switch key {
	case "tab":
		m.nextTab(1)
		return m, nil
	case "shift+tab":
		m.nextTab(-1)
		return m, nil
	case "enter":
		return m.handleEnter()
	case "esc":
		switch {
		case m.lists[m.activeTab].IsFiltered():
			m.lists[m.activeTab].ResetFilter()
		case m.activeTab == tabGenres && m.openGenre != "":
			m.showGenres()
		case m.activeTab == tabAuthors && m.openAuthor != "":
			m.showAuthors()
			m.status = ""
		case m.activeTab == tabSearch && m.search.Value() != "":
			m.search.SetValue("")
			m.runSearch()
		}
		return m, nil
	case "ctrl+r":
		m.loading = true
		m.err = nil
		return m, tea.Batch(m.loadCatalogCmd(), m.spinner.Tick)
	}

	if m.activeTab == tabSearch {
		switch key {
		case "up", "down", "pgup", "pgdown":
		default:
			before := m.search.Value()
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			if m.search.Value() != before {
				m.runSearch()
			}
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.lists[m.activeTab], cmd = m.lists[m.activeTab].Update(msg)
	return m, cmd
}

func (m BrowseModel) handleEnter() (BrowseModel, tea.Cmd) {
	switch item := m.lists[m.activeTab].SelectedItem().(type) {
	case library.BookEntry:
		m.status = lang.OpenBook(item.Name)
		title := item.Name
		return m, func() tea.Msg { return openBookMsg{Title: title} }
	case genreItem:
		if item.shelf.Books == nil {
			return m, nil
		}
		m.openGenre = item.shelf.Genre
		entries := make([]library.BookEntry, len(item.shelf.Books))
		for i, b := range item.shelf.Books {
			entries[i] = m.entryFor(b)
			entries[i].Genre = item.shelf.Genre
		}
		m.lists[tabGenres].SetItems(bookItems(entries))
		m.lists[tabGenres].ResetSelected()
	case authorItem:
		m.openAuthor = item.name
		m.status = lang.Active().Library.Loading
		return m, m.authorBooksCmd(item.name)
	}
	return m, nil
}

// SetStatus shows a one-line message above the list.
func (m *BrowseModel) SetStatus(s string) {
	m.status = s
}

func (m BrowseModel) View() string {
	var renderedTabs []string
	for i, name := range m.tabs {
		if i == m.activeTab {
			renderedTabs = append(renderedTabs, ActiveTabStyle.Render(name))
		} else {
			renderedTabs = append(renderedTabs, InactiveTabStyle.Render(name))
		}
	}
	texts := lang.Active()
	tabsRow := TabsRow.Width(m.width).Render(gloss.JoinHorizontal(gloss.Top, renderedTabs...))

	maxUnderline := texts.Layout.UnderlineLength
	if maxUnderline <= 0 {
		maxUnderline = 48
	}
	underlineRow := UnderlineRow.Width(m.width).Render(strings.Repeat("─", min(m.width, maxUnderline)))

	result := tabsRow + "\n" + underlineRow

	if m.activeTab == tabSearch {
		result += "\n" + gloss.PlaceHorizontal(m.width, gloss.Center, PromptBoxStyle.Render(m.search.View()))
	}

	statusText := m.status
	switch {
	case m.loading:
		statusText = m.spinner.View() + " " + texts.Library.Loading
	case m.err != nil:
		statusText = lang.LibraryLoadFailed(m.err)
	}
	if statusText != "" {
		result += "\n" + StatusStyle.Width(m.width).Render(statusText)
	}

	containerWidth := ListMaxWidth
	if m.width < containerWidth {
		containerWidth = max(m.width-8, 0)
	}
	if len(m.lists[m.activeTab].Items()) == 0 && !m.loading {
		hint := texts.Library.Empty
		if m.activeTab == tabSearch {
			hint = texts.Search.InputHint
		}
		result += "\n" + StatusMutedStyle.Width(m.width).Render(hint)
	} else {
		listBlock := ListStyle.Width(containerWidth).Render(m.lists[m.activeTab].View())
		result += List.Width(m.width).Render(listBlock)
	}

	if m.balance != "" {
		result += "\n" + StatusMutedStyle.Width(m.width).Render(m.balance)
	}
	return result
}

// ---------------- itemDelegate ----------------
type itemDelegate struct {
	list.DefaultDelegate
}

func (d *itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	title, desc := lang.Active().Common.UnknownState, ""
	if v, ok := item.(list.DefaultItem); ok {
		title = v.Title()
		desc = runewidth.Truncate(v.Description(), max(m.Width()-10, 1), "…")
	}
	if index == m.Index() {
		title = SelectedTitleStyle.Render(title)
		desc = SelectedDescStyle.Render(desc)
	} else {
		title = NormalTitleStyle.Render(title)
		desc = NormalDescStyle.Render(desc)
	}
	fmt.Fprintf(w, "%s\n%s", title, desc)
}

func (d *itemDelegate) Height() int                          { return 2 }
func (d *itemDelegate) Spacing() int                         { return 1 }
func (d *itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

// ---------------- List styling ----------------
func filterStyle(l *list.Model) {
	l.FilterInput.Prompt = lang.Active().Search.Prompt
	l.FilterInput.PromptStyle = PromptStyle
	l.FilterInput.TextStyle = PromptTextStyle
	l.FilterInput.Cursor.Style = PromptCursorStyle
}

func listSettings(l *list.Model) {
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()
}
