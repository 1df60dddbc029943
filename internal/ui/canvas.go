package ui

import (
	"fmt"
	"time"

	"github.com/jroimartin/gocui"
)

const leaveWidth = 18

func (ui *GUI) layoutCanvas(g *gocui.Gui) error {
	maxX, _ := g.Size()
	split := max(maxX-leaveWidth-1, 1)

	v, err := g.SetView(headerViewName, 0, 0, split-1, 2)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = true
	}
	v.Clear()
	fmt.Fprintf(v, " %s %s", ui.session.Emoji(), ui.session.Name())
	if ui.session.Disconnected() {
		fmt.Fprint(v, "  \x1b[31mconnection lost, leave and join again\x1b[0m")
	} else if status := ui.statusText(); status != "" {
		fmt.Fprintf(v, "  \x1b[31m%s\x1b[0m", status)
	}

	v, err = g.SetView(leaveViewName, split, 0, split+leaveWidth, 2)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		fmt.Fprint(v, center("Leave Canvas", leaveWidth-1))
	}

	v, err = g.SetView(canvasViewName, 0, 3, ui.opts.Width+1, ui.opts.Height+4)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = " Click to react, Esc to leave "

		if _, err := g.SetCurrentView(canvasViewName); err != nil {
			return err
		}
	}
	v.Clear()

	lines, next := renderCanvas(ui.session.Reactions(), ui.opts, time.Now())
	for _, line := range lines {
		fmt.Fprintln(v, line)
	}
	if !next.IsZero() {
		ui.scheduleRedraw(next)
	}

	return nil
}

func (ui *GUI) clickCanvas(g *gocui.Gui, v *gocui.View) error {
	cx, cy := v.Cursor()
	x, y := cellCenter(cx, cy, ui.opts)

	if err := ui.session.Click(x, y); err != nil {
		ui.logger.Debug("click", "error", err)
		ui.setStatus(err.Error())
	} else {
		ui.setStatus("")
	}

	return nil
}

func (ui *GUI) leave(g *gocui.Gui, v *gocui.View) error {
	if err := ui.session.Leave(); err != nil {
		ui.setStatus(err.Error())
	} else {
		ui.setStatus("")
	}

	return nil
}
