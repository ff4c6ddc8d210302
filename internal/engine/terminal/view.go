// Package terminal draws ring frames in a terminal with half-block cells
// and hosts the text console.
package terminal

import (
	"context"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/shockwave/internal/shockwave"
)

// statusRows is the space reserved below the picture.
const statusRows = 3

// FrameFunc builds the frame context for a viewport of w x h pixels.
type FrameFunc func(index uint64, w, h int) shockwave.FrameContext

// View renders controller output to a tcell screen.
type View struct {
	screen tcell.Screen
	ctrl   *shockwave.Controller
	log    *zap.Logger

	line  []rune
	reply string
	err   bool
	frame uint64
}

// NewView wraps an initialised screen.
func NewView(screen tcell.Screen, ctrl *shockwave.Controller, log *zap.Logger) *View {
	if log == nil {
		log = zap.NewNop()
	}
	return &View{screen: screen, ctrl: ctrl, log: log}
}

// Viewport returns the pixel size available for the picture. Each cell
// shows two vertically stacked pixels.
func (v *View) Viewport() (w, h int) {
	cols, rows := v.screen.Size()
	rows -= statusRows
	if rows < 1 {
		rows = 1
	}
	return max(cols, 1), rows * 2
}

// Draw renders img (or a placeholder when nil) plus the status lines.
func (v *View) Draw(img *image.RGBA, status string) {
	v.screen.Clear()
	cols, rows := v.screen.Size()

	if img != nil {
		b := img.Bounds()
		for cy := 0; cy < rows-statusRows; cy++ {
			top, bottom := 2*cy, 2*cy+1
			if top >= b.Dy() {
				break
			}
			for cx := 0; cx < cols && cx < b.Dx(); cx++ {
				fg := cellColor(img, b.Min.X+cx, b.Min.Y+top)
				bg := tcell.ColorBlack
				if bottom < b.Dy() {
					bg = cellColor(img, b.Min.X+cx, b.Min.Y+bottom)
				}
				v.screen.SetContent(cx, cy, '▀', nil, tcell.StyleDefault.Foreground(fg).Background(bg))
			}
		}
	}

	base := max(rows-statusRows, 0)
	v.text(0, base, status, tcell.StyleDefault.Foreground(tcell.ColorSilver))
	replyStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	if v.err {
		replyStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	v.text(0, base+1, v.reply, replyStyle)
	v.text(0, base+2, "> "+string(v.line), tcell.StyleDefault.Foreground(tcell.ColorWhite))
	v.screen.ShowCursor(2+len(v.line), base+2)
	v.screen.Show()
}

func (v *View) text(x, y int, s string, style tcell.Style) {
	cols, _ := v.screen.Size()
	for _, r := range s {
		if x >= cols {
			return
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// cellColor converts a premultiplied pixel to a terminal colour, which
// is the same as compositing it over black.
func cellColor(img *image.RGBA, x, y int) tcell.Color {
	c := img.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// HandleEvent applies one terminal event. It returns false when the
// view should close.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			v.submit()
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(v.line) > 0 {
				v.line = v.line[:len(v.line)-1]
			}
		case tcell.KeyRune:
			v.line = append(v.line, ev.Rune())
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *View) submit() {
	line := strings.TrimSpace(string(v.line))
	v.line = v.line[:0]
	if line == "" {
		return
	}
	if line == "quit" || line == "exit" {
		v.reply, v.err = "press Esc to quit", false
		return
	}
	reply, err := shockwave.Exec(v.ctrl, line)
	if err != nil {
		v.reply, v.err = err.Error(), true
		v.log.Debug("console command failed", zap.String("line", line), zap.Error(err))
		return
	}
	v.reply, v.err = reply, false
}

// Reply returns the last console reply.
func (v *View) Reply() string {
	return v.reply
}

// Step renders one frame through the controller and draws it.
func (v *View) Step(frameFn FrameFunc) {
	w, h := v.Viewport()
	fc := frameFn(v.frame, w, h)
	v.frame++

	f, ok := v.ctrl.Render(fc)
	status := shockwave.Status(v.ctrl)
	switch {
	case !ok:
		v.Draw(nil, status+" | frame skipped")
	case f.Image == nil:
		v.Draw(nil, status+" | uniform "+strconv.Itoa(len(f.Uniform))+" bytes")
	default:
		v.Draw(f.Image, status)
	}
}

// Run drives the view until ctx ends or the user quits. The caller
// finalises the screen afterwards, which also stops the event reader.
func (v *View) Run(ctx context.Context, frameFn FrameFunc, tick time.Duration) {
	events := make(chan tcell.Event, 100)
	go pollEvents(ctx, v.screen, events)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	v.Step(frameFn)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok || !v.HandleEvent(ev) {
				return
			}
		case <-ticker.C:
			v.Step(frameFn)
		}
	}
}

type eventPoller interface {
	PollEvent() tcell.Event
}

// pollEvents forwards screen events until the screen is finalised or ctx
// ends. events is closed when the screen stops.
func pollEvents(ctx context.Context, p eventPoller, events chan<- tcell.Event) {
	for {
		ev := p.PollEvent()
		if ev == nil {
			close(events)
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
