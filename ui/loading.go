package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"alexandria_reader/library"
)

// Loader callbacks arrive as these messages, tagged with the session that
// produced them so late messages of a replaced session can be dropped.
type unitsMsg struct {
	Session uuid.UUID
	Units   []string
}

type loadDoneMsg struct {
	Session uuid.UUID
}

type loadErrMsg struct {
	Session uuid.UUID
	Err     error
}

// chapterLoad connects one loader session to the Bubble Tea event loop.
type chapterLoad struct {
	id      uuid.UUID
	session *library.Session
	msgs    chan tea.Msg
	stop    chan struct{}
	once    sync.Once
}

func startChapterLoad(ctx context.Context, loader *library.Loader, book, chapter string) *chapterLoad {
	cl := &chapterLoad{
		id:   uuid.New(),
		msgs: make(chan tea.Msg),
		stop: make(chan struct{}),
	}
	send := func(msg tea.Msg) {
		select {
		case cl.msgs <- msg:
		case <-cl.stop:
		}
	}
	id := cl.id
	cl.session = loader.Start(ctx, id, book, chapter, library.Callbacks{
		OnUnit:  func(units []string) { send(unitsMsg{Session: id, Units: units}) },
		OnDone:  func() { send(loadDoneMsg{Session: id}) },
		OnError: func(err error) { send(loadErrMsg{Session: id, Err: err}) },
	})
	return cl
}

func (cl *chapterLoad) ID() uuid.UUID { return cl.id }

// Cancel stops the session and unblocks any pending wait.
func (cl *chapterLoad) Cancel() {
	cl.once.Do(func() {
		cl.session.Cancel()
		close(cl.stop)
	})
}

// Wait returns a command delivering the next message of the session.
func (cl *chapterLoad) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-cl.msgs:
			return msg
		case <-cl.stop:
			return nil
		}
	}
}
