package video

import (
	"gocv.io/x/gocv"
)

// Key codes returned by WaitKey.
const (
	KeyEscape    = 27
	KeyBackspace = 8
	KeyDelete    = 127
	KeySpace     = ' '
)

// WindowPreview shows frames in a HighGUI window.
type WindowPreview struct {
	window *gocv.Window
	// Delay is the WaitKey delay in milliseconds, at least 1.
	Delay int
	// OnKey handles every key except q and Escape, which always stop.
	// Returning false stops the run.
	OnKey func(key int, frame gocv.Mat) bool
}

// NewWindowPreview opens a window with the given title.
func NewWindowPreview(title string) *WindowPreview {
	return &WindowPreview{window: gocv.NewWindow(title), Delay: 1}
}

// Show displays frame and polls the keyboard. It returns false when the
// user quits or closes the window.
func (p *WindowPreview) Show(frame gocv.Mat) bool {
	p.window.IMShow(frame)
	delay := p.Delay
	if delay < 1 {
		delay = 1
	}
	key := p.window.WaitKey(delay)
	if !p.window.IsOpen() {
		return false
	}
	if key < 0 {
		return true
	}
	key &= 0xff
	if key == 'q' || key == KeyEscape {
		return false
	}
	if p.OnKey != nil {
		return p.OnKey(key, frame)
	}
	return true
}

// Close destroys the window.
func (p *WindowPreview) Close() error {
	return p.window.Close()
}
