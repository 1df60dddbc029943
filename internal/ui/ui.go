package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jroimartin/gocui"

	"github.com/jai2010/CollabCanvas/internal/reactions"
	"github.com/jai2010/CollabCanvas/internal/session"
)

const (
	nameViewName   = "name_view"
	emojiViewName  = "emoji_view"
	joinViewName   = "join_view"
	statusViewName = "status_view"

	headerViewName = "header_view"
	leaveViewName  = "leave_view"
	canvasViewName = "canvas_view"
)

var (
	gateViews   = []string{nameViewName, emojiViewName, joinViewName, statusViewName}
	canvasViews = []string{headerViewName, leaveViewName, canvasViewName}
)

// Session is what the screens need from the user's session.
type Session interface {
	SetName(name string)
	SelectEmoji(emoji string) error
	Name() string
	Emoji() string
	CanJoin() bool
	Join(ctx context.Context) error
	Leave() error
	Click(x, y float64) error
	State() session.State
	Reactions() []reactions.Entry
	Disconnected() bool
}

type Options struct {
	Width      int // canvas cells
	Height     int
	CellWidth  float64 // surface units per cell
	CellHeight float64
	Animation  time.Duration
	Window     time.Duration
}

type GUI struct {
	gui     *gocui.Gui
	session Session
	opts    Options
	logger  *slog.Logger
	ctx     context.Context

	shown session.State

	mu       sync.Mutex
	status   string
	redrawAt time.Time
}

func NewGUI(opts Options, logger *slog.Logger) (*GUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	return &GUI{
		gui:    g,
		opts:   opts,
		logger: logger,
		ctx:    context.Background(),
		shown:  session.StateGate,
	}, nil
}

func (ui *GUI) Close() {
	ui.gui.Close()
}

// Init attaches the session and sets up layout and keybindings.
func (ui *GUI) Init(s Session) error {
	ui.session = s

	ui.gui.Highlight = true
	ui.gui.Cursor = true
	ui.gui.Mouse = true
	ui.gui.InputEsc = true
	ui.gui.SelFgColor = gocui.ColorGreen

	ui.gui.SetManagerFunc(ui.layout)

	return ui.initKeybindings(ui.gui)
}

// MainLoop blocks until the user quits. ctx bounds the dial of every join.
func (ui *GUI) MainLoop(ctx context.Context) error {
	ui.ctx = ctx

	if ui.opts.Window > 0 {
		go ui.expire(ctx)
	}

	if err := ui.gui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

// Refresh schedules a redraw from any goroutine.
func (ui *GUI) Refresh() {
	ui.gui.Update(func(*gocui.Gui) error { return nil })
}

// expire redraws periodically so reactions leave the canvas when they fall
// out of the time window.
func (ui *GUI) expire(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ui.session.State() == session.StateActive {
				ui.Refresh()
			}
		}
	}
}

func (ui *GUI) scheduleRedraw(at time.Time) {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.redrawAt.After(time.Now()) && !at.Before(ui.redrawAt) {
		return
	}

	ui.redrawAt = at
	time.AfterFunc(time.Until(at), ui.Refresh)
}

func (ui *GUI) setStatus(status string) {
	ui.mu.Lock()
	ui.status = status
	ui.mu.Unlock()
}

func (ui *GUI) statusText() string {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	return ui.status
}

func (ui *GUI) initKeybindings(g *gocui.Gui) error {
	bindings := []struct {
		view    string
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{"", gocui.KeyCtrlC, quit},

		{nameViewName, gocui.KeyEnter, ui.join},
		{nameViewName, gocui.KeyTab, focus(emojiViewName)},
		{nameViewName, gocui.MouseLeft, focus(nameViewName)},
		{emojiViewName, gocui.KeyArrowLeft, ui.stepEmoji(-1)},
		{emojiViewName, gocui.KeyArrowRight, ui.stepEmoji(1)},
		{emojiViewName, gocui.KeyEnter, ui.join},
		{emojiViewName, gocui.KeyTab, focus(nameViewName)},
		{emojiViewName, gocui.MouseLeft, ui.pickEmoji},
		{joinViewName, gocui.MouseLeft, ui.join},

		{canvasViewName, gocui.MouseLeft, ui.clickCanvas},
		{canvasViewName, gocui.KeyEsc, ui.leave},
		{leaveViewName, gocui.MouseLeft, ui.leave},
	}

	for _, b := range bindings {
		if err := g.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	return nil
}

func (ui *GUI) layout(g *gocui.Gui) error {
	state := ui.session.State()

	if state != ui.shown {
		views := canvasViews
		if ui.shown == session.StateGate {
			views = gateViews
		}
		if err := deleteViews(g, views); err != nil {
			return err
		}
		ui.shown = state
	}

	if state == session.StateActive {
		return ui.layoutCanvas(g)
	}

	return ui.layoutGate(g)
}

func deleteViews(g *gocui.Gui, names []string) error {
	for _, name := range names {
		if err := g.DeleteView(name); err != nil && err != gocui.ErrUnknownView {
			return err
		}
	}

	return nil
}

func focus(name string) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		_, err := g.SetCurrentView(name)
		return err
	}
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

// Quit stops the main loop from any goroutine.
func (ui *GUI) Quit() {
	ui.gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
}
