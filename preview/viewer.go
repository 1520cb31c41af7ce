package preview

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"riserroute/core"
)

var tradeColors = map[string]tcell.Color{
	"plumbing":   tcell.ColorSteelBlue,
	"hvac":       tcell.ColorGreen,
	"electrical": tcell.ColorOrange,
}

// Viewer pages through rendered domains on a terminal screen.
type Viewer struct {
	screen tcell.Screen
	pages  []Page
	page   int
	offX   int
	offY   int
}

// NewViewer creates a viewer. The caller owns the screen's Init and Fini.
func NewViewer(screen tcell.Screen, pages []Page) *Viewer {
	return &Viewer{screen: screen, pages: pages}
}

// Page returns the index of the page on screen.
func (v *Viewer) Page() int {
	return v.page
}

// Show switches to the page of the given domain and reports whether it exists.
func (v *Viewer) Show(domainID string) bool {
	for i, p := range v.pages {
		if p.DomainID == domainID {
			v.page, v.offX, v.offY = i, 0, 0
			return true
		}
	}
	return false
}

func styleFor(c Cell) tcell.Style {
	st := tcell.StyleDefault
	switch {
	case c.Trade != "" && c.Rune != RuneConnector:
		if col, ok := tradeColors[c.Trade.Discipline()]; ok {
			st = st.Foreground(col).Bold(true)
		}
	case c.Rune == RuneBlocked:
		st = st.Foreground(tcell.ColorGray)
	case c.Rune == RuneTarget:
		st = st.Foreground(tcell.ColorRed).Bold(true)
	}
	return st
}

// Draw paints the current page.
func (v *Viewer) Draw() {
	s := v.screen
	s.Clear()
	w, h := s.Size()
	if len(v.pages) == 0 {
		drawText(s, 0, 0, "no domains", tcell.StyleDefault)
		s.Show()
		return
	}
	p := v.pages[v.page]
	header := fmt.Sprintf("%s  [%d/%d]  n/p page  arrows scroll  q quit", p.Title, v.page+1, len(v.pages))
	drawText(s, 0, 0, header, tcell.StyleDefault.Reverse(true))

	mw, mh := p.Matrix.Size()
	for y := 1; y < h; y++ {
		my := y - 1 + v.offY
		if my >= mh {
			break
		}
		for x := 0; x < w; x++ {
			mx := x + v.offX
			if mx >= mw {
				break
			}
			c := p.Matrix.Get(mx, my)
			s.SetContent(x, y, c.Rune, nil, styleFor(c))
		}
	}
	s.Show()
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}

// HandleKey applies a key press and reports whether the viewer should exit.
func (v *Viewer) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		v.offX = max(v.offX-1, 0)
	case tcell.KeyRight:
		v.offX++
	case tcell.KeyUp:
		v.offY = max(v.offY-1, 0)
	case tcell.KeyDown:
		v.offY++
	case tcell.KeyPgDn, tcell.KeyTab:
		v.turn(1)
	case tcell.KeyPgUp, tcell.KeyBacktab:
		v.turn(-1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'n':
			v.turn(1)
		case 'p':
			v.turn(-1)
		}
	}
	return false
}

func (v *Viewer) turn(delta int) {
	if len(v.pages) == 0 {
		return
	}
	v.page = (v.page + delta + len(v.pages)) % len(v.pages)
	v.offX, v.offY = 0, 0
}

// Run draws and handles events until the user quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.screen.Sync()
		case *tcell.EventKey:
			if v.HandleKey(ev) {
				return nil
			}
		}
		v.Draw()
	}
}

// Legend lists the glyph of every trade.
func Legend() []string {
	out := make([]string, 0, len(core.KnownSystemTypes)+4)
	for _, sys := range core.KnownSystemTypes {
		out = append(out, fmt.Sprintf("%c %s", Glyph(sys), sys))
	}
	out = append(out,
		fmt.Sprintf("%c connector", RuneConnector),
		fmt.Sprintf("%c target", RuneTarget),
		fmt.Sprintf("%c non-penetrable obstacle", RuneBlocked),
		fmt.Sprintf("%c penetrable obstacle", RunePenetrable))
	return out
}
