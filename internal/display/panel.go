package display

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/randytsao24/trainsign/internal/models"
)

// RenderError is returned when a frame could not be presented
type RenderError struct {
	Sink string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("presenting frame to %s: %v", e.Sink, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Sink is an output the composed frame is presented to
type Sink interface {
	Name() string
	Present(frame image.Image, board models.Board) error
}

// Panel owns the layout and pushes every composed frame to its sinks
type Panel struct {
	mu     sync.Mutex
	layout Layout
	sinks  []Sink
	face   font.Face
	now    func() time.Time
	logger *slog.Logger
	board  models.Board
}

// NewPanel creates a panel for layout presenting to sinks
func NewPanel(layout Layout, logger *slog.Logger, sinks ...Sink) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{
		layout: layout,
		sinks:  sinks,
		face:   basicfont.Face7x13,
		now:    time.Now,
		logger: logger,
	}
}

// Render writes the arrival times into the secondary lines and presents
// the frame
func (p *Panel) Render(times models.Times) error {
	north, south := times.Lines()

	p.mu.Lock()
	p.layout.Line1Secondary.Text = north
	p.layout.Line2Secondary.Text = south
	p.board.Times = times
	p.mu.Unlock()

	return p.Present()
}

// Present composes the current layout and hands it to every sink.
// All sinks are tried; the first failure is returned.
func (p *Panel) Present() error {
	p.mu.Lock()
	frame := p.compose()
	p.board.Line1Label = p.layout.Line1Primary.Text
	p.board.Line1Times = p.layout.Line1Secondary.Text
	p.board.Line2Label = p.layout.Line2Primary.Text
	p.board.Line2Times = p.layout.Line2Secondary.Text
	p.board.RenderedAt = p.now()
	board := p.board
	p.mu.Unlock()

	var firstErr error
	for _, sink := range p.sinks {
		if err := sink.Present(frame, board); err != nil {
			p.logger.Warn("sink failed", "sink", sink.Name(), "error", err)
			if firstErr == nil {
				firstErr = &RenderError{Sink: sink.Name(), Err: err}
			}
		}
	}
	return firstErr
}

// Board returns the text currently on the panel
func (p *Panel) Board() models.Board {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.board
}

// compose draws background and labels. Caller must hold p.mu.
func (p *Panel) compose() *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(frame, frame.Bounds(), image.Black, image.Point{}, draw.Src)

	if bg := p.layout.Background; bg != nil {
		draw.Draw(frame, frame.Bounds(), bg, bg.Bounds().Min, draw.Over)
	}

	for _, label := range p.layout.labels() {
		d := font.Drawer{
			Dst:  frame,
			Src:  image.NewUniform(label.Color),
			Face: p.face,
			Dot:  fixed.P(label.X, label.Y),
		}
		d.DrawString(label.Text)
	}
	return frame
}
