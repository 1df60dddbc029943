package ui

import (
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"
	"github.com/mattn/go-runewidth"

	"github.com/jai2010/CollabCanvas/internal/domain"
)

const gateWidth = 44

func (ui *GUI) layoutGate(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	x0 := max((maxX-gateWidth)/2, 0)
	y0 := max(maxY/2-6, 0)
	x1 := x0 + gateWidth

	v, err := g.SetView(nameViewName, x0, y0, x1, y0+2)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}

		v.Title = " Join Canvas: your name "
		v.Editable = true
		v.Editor = gocui.EditorFunc(ui.editName)

		// pre-filled after leaving
		name := ui.session.Name()
		fmt.Fprint(v, name)
		_ = v.SetCursor(runewidth.StringWidth(name), 0)

		if _, err := g.SetCurrentView(nameViewName); err != nil {
			return err
		}
	}

	v, err = g.SetView(emojiViewName, x0, y0+3, x1, y0+5)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = " Pick an emoji (←/→ or click) "
	}
	v.Clear()
	fmt.Fprint(v, emojiRow(ui.session.Emoji()))

	v, err = g.SetView(joinViewName, x0, y0+6, x1, y0+8)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
	}
	v.Clear()
	if ui.session.CanJoin() {
		v.FgColor = gocui.ColorGreen | gocui.AttrBold
		fmt.Fprint(v, center("Join Canvas", gateWidth-1))
	} else {
		v.FgColor = gocui.ColorDefault
		fmt.Fprint(v, center("Join Canvas (name and emoji needed)", gateWidth-1))
	}

	v, err = g.SetView(statusViewName, x0, y0+9, x1, y0+11)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.Wrap = true
		v.FgColor = gocui.ColorRed
	}
	v.Clear()
	fmt.Fprint(v, ui.statusText())

	return nil
}

func (ui *GUI) editName(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	if key == gocui.KeyEnter {
		return
	}

	gocui.DefaultEditor.Edit(v, key, ch, mod)
	ui.session.SetName(v.Buffer())
}

func (ui *GUI) pickEmoji(g *gocui.Gui, v *gocui.View) error {
	if _, err := g.SetCurrentView(emojiViewName); err != nil {
		return err
	}

	cx, _ := v.Cursor()
	if i := emojiAt(cx); i >= 0 {
		return ui.session.SelectEmoji(domain.Emojis[i])
	}

	return nil
}

func (ui *GUI) stepEmoji(step int) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		i := indexOf(ui.session.Emoji())
		if i < 0 {
			i = 0
		} else {
			i = (i + step + len(domain.Emojis)) % len(domain.Emojis)
		}

		return ui.session.SelectEmoji(domain.Emojis[i])
	}
}

// join runs the dial off the main loop; the session's change callback
// redraws once it is done.
func (ui *GUI) join(g *gocui.Gui, v *gocui.View) error {
	if !ui.session.CanJoin() {
		return nil
	}

	ui.setStatus("connecting...")

	go func() {
		if err := ui.session.Join(ui.ctx); err != nil {
			ui.logger.Debug("join", "error", err)
			ui.setStatus("could not join: " + err.Error())
		} else {
			ui.setStatus("")
		}
		ui.Refresh()
	}()

	return nil
}

// emojiRow draws the picker with the selected glyph in reverse video.
func emojiRow(selected string) string {
	var b strings.Builder

	for _, e := range domain.Emojis {
		if e == selected {
			b.WriteString("\x1b[7m " + e + " \x1b[0m")
		} else {
			b.WriteString(" " + e + " ")
		}
	}

	return b.String()
}

// emojiAt maps a cell column of emojiRow to an index in domain.Emojis, or
// -1 past the last glyph.
func emojiAt(col int) int {
	if col < 0 {
		return -1
	}

	x := 0
	for i, e := range domain.Emojis {
		x += runewidth.StringWidth(e) + 2
		if col < x {
			return i
		}
	}

	return -1
}

func indexOf(emoji string) int {
	for i, e := range domain.Emojis {
		if e == emoji {
			return i
		}
	}

	return -1
}

func center(s string, width int) string {
	pad := (width - runewidth.StringWidth(s)) / 2
	if pad <= 0 {
		return s
	}

	return strings.Repeat(" ", pad) + s
}
