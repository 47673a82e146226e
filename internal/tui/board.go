package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/nutribuddy/internal/chat"
	"github.com/diogo/nutribuddy/internal/models"
)

// Messages the board sends to the running program
type (
	clearInputMsg   struct{}
	boardChangedMsg struct{}
	scrollEndMsg    struct{}
	busyMsg         struct{ busy bool }
)

// board is the message list shared by the program and the turn goroutine.
// It implements chat.View; every change is announced to the program through
// notify, which may be nil when no program is attached.
type board struct {
	mu         sync.Mutex
	input      string
	messages   []models.Message
	busy       bool
	cancelTurn context.CancelFunc
	notify     func(tea.Msg)
}

var _ chat.View = (*board)(nil)

func newBoard() *board {
	return &board{}
}

func (b *board) send(msg tea.Msg) {
	b.mu.Lock()
	notify := b.notify
	b.mu.Unlock()
	if notify != nil {
		notify(msg)
	}
}

// attach routes change notifications to fn, usually tea.Program.Send
func (b *board) attach(fn func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notify = fn
}

// setInput records the text the next turn will read
func (b *board) setInput(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.input = text
}

func (b *board) Input() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.input
}

func (b *board) ClearInput() {
	b.mu.Lock()
	b.input = ""
	b.mu.Unlock()
	b.send(clearInputMsg{})
}

func (b *board) Append(msg models.Message) {
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	b.mu.Unlock()
	b.send(boardChangedMsg{})
}

func (b *board) Remove(id string) {
	b.mu.Lock()
	for i, msg := range b.messages {
		if msg.ID == id {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	b.send(boardChangedMsg{})
}

func (b *board) ScrollToEnd() {
	b.send(scrollEndMsg{})
}

func (b *board) SetBusy(busy bool) {
	b.mu.Lock()
	b.busy = busy
	b.mu.Unlock()
	b.send(busyMsg{busy: busy})
}

// Messages returns a snapshot of the displayed messages
func (b *board) Messages() []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Busy reports whether a turn is in flight
func (b *board) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.busy
}

// startTurn returns a context for a new turn that cancel can abort
func (b *board) startTurn(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	b.mu.Lock()
	b.cancelTurn = cancel
	b.mu.Unlock()
	return ctx
}

// cancel aborts the running turn, if any, and reports whether there was one
func (b *board) cancel() bool {
	b.mu.Lock()
	cancel := b.cancelTurn
	b.cancelTurn = nil
	b.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}
