package ui

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/jai2010/CollabCanvas/internal/domain"
	"github.com/jai2010/CollabCanvas/internal/reactions"
)

const (
	bold  = "\x1b[1m"
	reset = "\x1b[0m"
)

type cell struct {
	text string
	bold bool
	cont bool // right half of a wide glyph
}

type grid [][]cell

func newGrid(cols, rows int) grid {
	g := make(grid, rows)
	for i := range g {
		g[i] = make([]cell, cols)
		for j := range g[i] {
			g[i][j] = cell{text: " "}
		}
	}

	return g
}

// put writes s starting at col, clipping whatever falls outside the row.
func (g grid) put(row, col int, s string, hl bool) {
	if row < 0 || row >= len(g) {
		return
	}
	line := g[row]

	last := -1
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			// combining marks and variation selectors stay with their glyph
			if last >= 0 {
				line[last].text += string(r)
			}
			continue
		}

		last = -1
		if col >= 0 && col+w <= len(line) {
			g.clear(row, col)
			if w == 2 {
				g.clear(row, col+1)
			}
			line[col] = cell{text: string(r), bold: hl}
			if w == 2 {
				line[col+1] = cell{cont: true, bold: hl}
			}
			last = col
		}
		col += w
	}
}

// clear blanks a cell, and the other half of a wide glyph it belongs to.
func (g grid) clear(row, col int) {
	line := g[row]

	if line[col].cont && col > 0 {
		line[col-1] = cell{text: " "}
	} else if col+1 < len(line) && line[col+1].cont {
		line[col+1] = cell{text: " "}
	}
	line[col] = cell{text: " "}
}

func (g grid) lines() []string {
	out := make([]string, 0, len(g))

	for _, line := range g {
		var b strings.Builder
		on := false
		for _, c := range line {
			if c.cont {
				continue
			}
			if c.bold != on {
				if c.bold {
					b.WriteString(bold)
				} else {
					b.WriteString(reset)
				}
				on = c.bold
			}
			b.WriteString(c.text)
		}
		if on {
			b.WriteString(reset)
		}
		out = append(out, b.String())
	}

	return out
}

// renderCanvas draws each entry as its emoji centred on its cell with the
// user name below, in list order so later entries cover earlier ones.
// Entries younger than the animation are bold; the second result is when
// the next of them stops being bold, zero if none is.
func renderCanvas(entries []reactions.Entry, opts Options, now time.Time) ([]string, time.Time) {
	g := newGrid(opts.Width, opts.Height)
	surface := domain.Surface{
		Width:  float64(opts.Width) * opts.CellWidth,
		Height: float64(opts.Height) * opts.CellHeight,
	}

	var next time.Time
	for _, e := range entries {
		// kept in the list, but there is no cell to draw it in
		if !surface.Contains(e.X, e.Y) {
			continue
		}
		col, row := cellOf(e.X, e.Y, opts)

		hl := false
		if opts.Animation > 0 {
			if end := e.Arrived.Add(opts.Animation); end.After(now) {
				hl = true
				if next.IsZero() || end.Before(next) {
					next = end
				}
			}
		}

		emoji, name := printable(e.Emoji), printable(e.UserName)
		g.put(row, col-runewidth.StringWidth(emoji)/2, emoji, hl)
		g.put(row+1, col-runewidth.StringWidth(name)/2, name, false)
	}

	return g.lines(), next
}

// cellOf maps a surface position to the canvas cell that contains it.
// Callers keep the position inside the surface.
func cellOf(x, y float64, opts Options) (int, int) {
	return int(math.Floor(x / opts.CellWidth)), int(math.Floor(y / opts.CellHeight))
}

// printable drops control characters so peer text cannot break lines or
// inject escape sequences into the view.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// cellCenter maps a canvas cell to the surface position at its centre.
func cellCenter(col, row int, opts Options) (float64, float64) {
	return (float64(col) + 0.5) * opts.CellWidth, (float64(row) + 0.5) * opts.CellHeight
}
