package arcengine

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	panelFill   = color.RGBA{0, 0, 0, 100}
	panelBorder = color.RGBA{36, 42, 53, 255}
	statusError = color.RGBA{255, 80, 80, 255}
)

// Status is the one-line message shown under the map.
type Status struct {
	Message string
	Err     bool
	At      time.Time
}

// SetStatus replaces the status line.
func (e *Engine) SetStatus(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = Status{Message: fmt.Sprintf(format, args...), At: time.Now()}
}

// SetError shows an error in the status line. The current snapshot keeps playing.
func (e *Engine) SetError(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = Status{Message: fmt.Sprintf(format, args...), Err: true, At: time.Now()}
}

// Status returns the current status line.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) hudSize() (margin, fontSize float64) {
	if e.Width > 2000 {
		return 80, 36
	}
	return 40, 18
}

func (e *Engine) drawStatus(screen *ebiten.Image) {
	if e.fontSource == nil {
		return
	}
	st := e.Status()
	if st.Message == "" {
		return
	}
	margin, fontSize := e.hudSize()
	face := &text.GoTextFace{Source: e.fontSource, Size: fontSize * 0.8}

	w, _ := text.Measure(st.Message, face, 0)
	x := margin
	y := float64(e.Height) - margin - fontSize

	vector.DrawFilledRect(screen, float32(x-10), float32(y-10), float32(w+30), float32(fontSize+20), panelFill, false)
	vector.StrokeRect(screen, float32(x-10), float32(y-10), float32(w+30), float32(fontSize+20), 1, panelBorder, false)
	accent := color.Color(e.Renderer.Style.Low)
	if st.Err {
		accent = statusError
	}
	vector.DrawFilledRect(screen, float32(x-10), float32(y-10), 4, float32(fontSize+20), accent, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(x+5, y)
	op.ColorScale.Scale(1, 1, 1, 0.7)
	text.Draw(screen, st.Message, face, op)
}

// drawLegend shows the intensity gradient in the bottom right corner.
func (e *Engine) drawLegend(screen *ebiten.Image) {
	if e.monoSource == nil {
		return
	}
	margin, fontSize := e.hudSize()
	face := &text.GoTextFace{Source: e.monoSource, Size: fontSize * 0.7}

	const steps = 24
	swatchW, swatchH := fontSize*0.5, fontSize*0.6
	boxW := steps*swatchW + 20
	boxH := fontSize*2 + 20
	x := float64(e.Width) - margin - boxW
	y := float64(e.Height) - margin - boxH + 10

	vector.DrawFilledRect(screen, float32(x), float32(y), float32(boxW), float32(boxH), panelFill, false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(boxW), float32(boxH), 1, panelBorder, false)

	title := &text.DrawOptions{}
	title.GeoM.Translate(x+10, y+6)
	title.ColorScale.Scale(1, 1, 1, 0.5)
	text.Draw(screen, "INTENSITY", face, title)

	sy := y + fontSize + 8
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		c := LerpColor(e.Renderer.Style.Low, e.Renderer.Style.High, t)
		vector.DrawFilledRect(screen, float32(x+10+float64(i)*swatchW), float32(sy), float32(swatchW), float32(swatchH), c, false)
	}
}
