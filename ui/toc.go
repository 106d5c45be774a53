package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	gloss "github.com/charmbracelet/lipgloss"

	"alexandria_reader/lang"
	"alexandria_reader/library"
)

// TOCModel wraps a bubbles list to display chapters.
type TOCModel struct {
	list       list.Model
	jumpBuffer string // accumulate number keys
}

type TOCItem struct {
	title string
	pos   int // position in the book
	units int // fetched paragraphs, -1 if never loaded
}

func (i TOCItem) Title() string { return i.title }
func (i TOCItem) Description() string {
	if i.units < 0 {
		return ""
	}
	return lang.ParagraphCount(i.units)
}
func (i TOCItem) FilterValue() string { return i.title }

// Messages used to communicate selection/cancel to the parent AppModel
type TOCSelectMsg int
type TOCCancelMsg struct{}

func NewTOCModel(chapters []*library.Chapter, width, height, selected int) TOCModel {
	items := make([]list.Item, len(chapters))
	for i, ch := range chapters {
		units := -1
		if ch.Fetched() {
			units = len(ch.Units)
		}
		items[i] = TOCItem{title: ch.Title, pos: i, units: units}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = SelectedTitleStyle
	delegate.Styles.NormalTitle = NormalTitleStyle
	delegate.Styles.SelectedDesc = SelectedDescStyle
	delegate.Styles.NormalDesc = NormalDescStyle
	delegate.ShowDescription = false

	l := list.New(items, delegate, width, height)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.Styles.StatusBar = gloss.NewStyle().
		Foreground(gloss.Color("#585b70")).
		PaddingBottom(1).
		PaddingLeft(2)
	l.SetShowTitle(false)
	l.SetShowPagination(true)

	applyTOCStrings(&l)

	l.FilterInput.PromptStyle = PromptStyle.PaddingTop(1)
	l.FilterInput.TextStyle = PromptTextStyle
	l.FilterInput.Cursor.Style = PromptCursorStyle

	l.Styles.Title = l.Styles.Title.Margin(0).Padding(0)
	l.Styles.FilterPrompt = l.Styles.FilterPrompt.Padding(0)
	l.Styles.FilterCursor = l.Styles.FilterCursor.Padding(0)

	if selected >= 0 && selected < len(items) {
		l.Select(selected)
	}

	return TOCModel{list: l}
}

func applyTOCStrings(l *list.Model) {
	texts := lang.Active()
	l.Title = texts.TOC.Title
	l.SetStatusBarItemName(texts.TOC.StatusSingular, texts.TOC.StatusPlural)
	l.FilterInput.Prompt = texts.TOC.FilterPrompt
}

func (m *TOCModel) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func (m TOCModel) Init() tea.Cmd { return nil }

func (m TOCModel) Update(msg tea.Msg) (TOCModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(TOCItem); ok {
				return m, func() tea.Msg { return TOCSelectMsg(item.pos) }
			}
		case "esc":
			if m.list.FilterState() == list.Filtering || m.list.IsFiltered() {
				m.list.ResetFilter()
				return m, nil
			}
			return m, func() tea.Msg { return TOCCancelMsg{} }
		}

		// Only intercept digits if we're NOT filtering
		if m.list.FilterState() != list.Filtering {
			switch keyMsg.String() {
			case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
				m.jumpBuffer += keyMsg.String()
				return m, nil
			case "g", "G":
				if m.jumpBuffer != "" {
					if n, err := strconv.Atoi(m.jumpBuffer); err == nil {
						for i, it := range m.list.Items() {
							if item, ok := it.(TOCItem); ok && item.pos == n-1 {
								m.list.Select(i)
								break
							}
						}
					}
					m.jumpBuffer = ""
					return m, nil
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m TOCModel) View() string {
	return gloss.NewStyle().
		PaddingTop(1).
		PaddingLeft(2).
		Render(m.list.View())
}
