package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"alexandria_reader/lang"
	"alexandria_reader/library"
	"alexandria_reader/reader"
	"alexandria_reader/utils"
)

type AppState int

const (
	StateBrowse AppState = iota
	StateReader
	StateTOC
)

type bookOpenedMsg struct {
	Title string
	Book  *library.Book
	Err   error
}

// Deps is everything the terminal UI needs from the outside.
type Deps struct {
	Library  library.Library
	Source   string
	Loader   *library.Loader
	Settings *reader.SettingsStore
	Progress utils.ProgressFile
	Log      *zap.Logger
}

type AppModel struct {
	ctx   context.Context
	deps  Deps
	state AppState

	browseUI BrowseModel
	readerUI ReaderModel
	tocUI    TOCModel

	width  int
	height int
}

func NewAppModel(ctx context.Context, deps Deps) AppModel {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return AppModel{
		ctx:      ctx,
		deps:     deps,
		state:    StateBrowse,
		browseUI: NewBrowseModel(ctx, deps.Library, deps.Source, deps.Progress, deps.Log),
	}
}

func (m AppModel) Init() tea.Cmd { return m.browseUI.Init() }

func (m AppModel) openBookCmd(title string) tea.Cmd {
	ctx, src := m.ctx, m.deps.Library
	return func() tea.Msg {
		book, err := library.OpenBook(ctx, src, title)
		return bookOpenedMsg{Title: title, Book: book, Err: err}
	}
}

func (m AppModel) syncWindowSizeCmd() tea.Cmd {
	w, h := m.width, m.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

func (m AppModel) handleStateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch tm := msg.(type) {
	case openBookMsg:
		return m, m.openBookCmd(tm.Title)
	case bookOpenedMsg:
		if tm.Err != nil {
			m.deps.Log.Warn("Unable to open book", zap.String("book", tm.Title), zap.Error(tm.Err))
			m.browseUI.SetStatus(lang.OpenBookFailed(tm.Title, tm.Err))
			return m, nil
		}
		m.browseUI.SetStatus("")
		m.readerUI = NewReaderModel(m.ctx, tm.Book, m.deps.Source, ReaderDeps{
			Loader:   m.deps.Loader,
			Settings: m.deps.Settings,
			Progress: m.deps.Progress,
			Log:      m.deps.Log,
		})
		m.readerUI.Width, m.readerUI.Height = m.width, m.height
		var cmd tea.Cmd
		m.readerUI, cmd = m.readerUI.Start()
		m.state = StateReader
		return m, tea.Batch(cmd, m.syncWindowSizeCmd())
	}

	var cmd tea.Cmd
	m.browseUI, cmd = m.browseUI.Update(msg)
	return m, cmd
}

func (m AppModel) handleStateReader(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q":
			m.readerUI.Cancel()
			m.state = StateBrowse
			m.browseUI.RefreshHistory()
			return m, m.syncWindowSizeCmd()
		case "tab", "t":
			m.tocUI = NewTOCModel(m.readerUI.Book.Chapters, m.width-4, m.height-2, m.readerUI.ChapterPosition())
			m.state = StateTOC
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.readerUI, cmd = m.readerUI.Update(msg)
	return m, cmd
}

func (m AppModel) handleStateTOC(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch tm := msg.(type) {
	case tea.WindowSizeMsg:
		m.tocUI.SetSize(tm.Width-4, tm.Height-2)
		m.readerUI, _ = m.readerUI.Update(msg)
		return m, nil
	case TOCSelectMsg:
		m.state = StateReader
		var cmd tea.Cmd
		m.readerUI, cmd = m.readerUI.OpenChapter(int(tm))
		return m, tea.Batch(cmd, m.syncWindowSizeCmd())
	case TOCCancelMsg:
		m.state = StateReader
		return m, nil
	case unitsMsg, loadDoneMsg, loadErrMsg:
		// the chapter keeps loading behind the overlay
		var cmd tea.Cmd
		m.readerUI, cmd = m.readerUI.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.tocUI, cmd = m.tocUI.Update(msg)
	return m, cmd
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+c" {
		m.readerUI.Cancel()
		return m, tea.Quit
	}
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
	}

	// Catalogue results may arrive while a book is open.
	switch msg.(type) {
	case catalogMsg, authorBooksMsg, balanceMsg:
		var cmd tea.Cmd
		m.browseUI, cmd = m.browseUI.Update(msg)
		return m, cmd
	}

	switch m.state {
	case StateBrowse:
		return m.handleStateBrowse(msg)
	case StateReader:
		return m.handleStateReader(msg)
	case StateTOC:
		return m.handleStateTOC(msg)
	default:
		return m, nil
	}
}

func (m AppModel) View() string {
	switch m.state {
	case StateBrowse:
		return m.browseUI.View()
	case StateReader:
		return m.readerUI.View()
	case StateTOC:
		return m.tocUI.View()
	default:
		return lang.Active().Common.UnknownState
	}
}

// RunApp runs the terminal UI until the user quits.
func RunApp(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(NewAppModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
