package overlay

import (
	"fmt"
	"image"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/nvr-ai/blobtrail/detector"
	"github.com/nvr-ai/blobtrail/images"
)

// Scene is everything drawn on one output frame.
type Scene struct {
	// Blobs of the current frame, size-sorted and capped.
	Blobs []detector.Blob
	// Trails are point histories, oldest first.
	Trails [][]r2.Vec
	// Connections index into Blobs.
	Connections []Connection
	// Mask is the detection mask for the debug inset. Optional.
	Mask *gocv.Mat
	// Warming and Progress describe the background warm-up.
	Warming  bool
	Progress float64
}

// Renderer draws a Scene onto frames. It holds no per-frame state.
type Renderer struct {
	Style Style
}

// NewRenderer creates a renderer with the given style.
func NewRenderer(style Style) *Renderer {
	if style.MaxTrailThickness < 1 {
		style.MaxTrailThickness = 1
	}
	return &Renderer{Style: style}
}

// Draw paints scene onto frame in place.
//
// Elements are drawn in a fixed order: trails, connections, markers, labels,
// then the mask inset and the warm-up banner. Coordinates outside the frame
// are clipped by OpenCV.
//
// Arguments:
//   - frame: 8UC3 BGR frame.
//   - scene: What to draw.
//
// Returns:
//   - error: if the frame is not BGR or the inset cannot be drawn.
func (r *Renderer) Draw(frame *gocv.Mat, scene Scene) error {
	if frame.Empty() || frame.Type() != gocv.MatTypeCV8UC3 {
		return errors.Wrap(images.ErrUnsupportedMat, "overlay needs a BGR frame")
	}

	if r.Style.ShowTrails {
		for _, trail := range scene.Trails {
			r.drawTrail(frame, trail)
		}
	}
	if r.Style.ShowConnections {
		for _, c := range scene.Connections {
			if c.I < 0 || c.J < 0 || c.I >= len(scene.Blobs) || c.J >= len(scene.Blobs) {
				return errors.Errorf("connection (%d, %d) outside %d blobs", c.I, c.J, len(scene.Blobs))
			}
			gocv.Line(frame, scene.Blobs[c.I].Point(), scene.Blobs[c.J].Point(), gray(r.Style.Level(c.Intensity)), 1)
		}
	}
	if r.Style.ShowMarkers {
		for _, b := range scene.Blobs {
			r.drawMarker(frame, b)
		}
	}
	if r.Style.ShowNumbers {
		for i, b := range scene.Blobs {
			r.drawLabel(frame, b, strconv.Itoa(i+1))
		}
	}
	if r.Style.ShowMask && scene.Mask != nil {
		if err := images.DrawMaskInset(frame, *scene.Mask); err != nil {
			return errors.Wrap(err, "mask inset")
		}
	}
	if r.Style.ShowWarmup && scene.Warming {
		r.drawWarmup(frame, scene.Progress)
	}
	return nil
}

// TrailSegment returns the intensity and thickness of segment k of n, counted
// from the oldest. Both rise toward the newest segment, which gets intensity
// 1 and the full thickness.
func (r *Renderer) TrailSegment(k, n int) (intensity float64, thickness int) {
	if n <= 0 {
		return 0, 0
	}
	intensity = float64(k+1) / float64(n)
	thickness = 1 + (k+1)*(r.Style.MaxTrailThickness-1)/n
	return intensity, thickness
}

func (r *Renderer) drawTrail(frame *gocv.Mat, trail []r2.Vec) {
	n := len(trail) - 1
	for k := 0; k < n; k++ {
		intensity, thickness := r.TrailSegment(k, n)
		gocv.Line(frame, toPoint(trail[k]), toPoint(trail[k+1]), gray(r.Style.Level(intensity)), thickness)
	}
}

// MarkerHalves returns the half sides of the outer and inner squares of b.
func MarkerHalves(b detector.Blob) (outer, inner int) {
	d := b.Diameter()
	return int(1.5 * d), int(0.5 * d)
}

func (r *Renderer) drawMarker(frame *gocv.Mat, b detector.Blob) {
	center := b.Point()
	fg := r.Style.Foreground()

	if r.Style.UsePoints {
		gocv.Circle(frame, center, PointRadius, fg, -1)
		gocv.Circle(frame, center, RingRadius, fg, 1)
		return
	}

	outer, inner := MarkerHalves(b)
	if r.Style.Marker == MarkerBoth || r.Style.Marker == MarkerOuter {
		gocv.Rectangle(frame, images.SquareAround(center, outer), fg, 1)
	}
	if r.Style.Marker == MarkerBoth || r.Style.Marker == MarkerInner {
		gocv.Rectangle(frame, images.SquareAround(center, inner), fg, -1)
	}
}

// LabelRect returns the patch behind the label text of b, before clipping.
// The text baseline sits two diameters above the centroid.
func LabelRect(b detector.Blob, text string) (patch image.Rectangle, origin image.Point) {
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, LabelScale, 1)
	center := b.Point()
	origin = image.Pt(center.X-size.X/2, center.Y-int(2*b.Diameter()))
	patch = image.Rect(
		origin.X-LabelPadding, origin.Y-size.Y-LabelPadding,
		origin.X+size.X+LabelPadding, origin.Y+LabelPadding,
	)
	return patch, origin
}

func (r *Renderer) drawLabel(frame *gocv.Mat, b detector.Blob, text string) {
	patch, origin := LabelRect(b, text)
	visible, ok := images.ClipToFrame(patch, frame.Cols(), frame.Rows())
	if !ok {
		return
	}
	gocv.Rectangle(frame, visible, r.Style.Background(), -1)
	gocv.PutText(frame, text, origin, gocv.FontHersheySimplex, LabelScale, r.Style.Foreground(), 1)
}

func (r *Renderer) drawWarmup(frame *gocv.Mat, progress float64) {
	progress = clamp01(progress)
	fg := r.Style.Foreground()

	text := fmt.Sprintf("Building background... %d%%", int(progress*100))
	gocv.PutText(frame, text, image.Pt(10, frame.Rows()-30), gocv.FontHersheySimplex, 0.6, fg, 1)

	bar := image.Rect(10, frame.Rows()-20, 210, frame.Rows()-10)
	gocv.Rectangle(frame, bar, fg, 1)
	if filled := int(progress * float64(bar.Dx())); filled > 0 {
		gocv.Rectangle(frame, image.Rect(bar.Min.X, bar.Min.Y, bar.Min.X+filled, bar.Max.Y), fg, -1)
	}
}

func toPoint(v r2.Vec) image.Point {
	return image.Pt(int(v.X), int(v.Y))
}
