package overlay

import (
	"image/color"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// MarkerStyle selects how blobs are boxed.
type MarkerStyle int

const (
	// MarkerBoth draws a filled inner square inside a bordered outer square.
	MarkerBoth MarkerStyle = iota
	// MarkerOuter draws only the bordered outer square.
	MarkerOuter
	// MarkerInner draws only the filled inner square.
	MarkerInner
)

var markerNames = map[MarkerStyle]string{
	MarkerBoth:  "both",
	MarkerOuter: "outer",
	MarkerInner: "inner",
}

// String returns the marker style name.
func (m MarkerStyle) String() string {
	if name, ok := markerNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMarkerStyle parses "both", "outer" or "inner", case-insensitively.
func ParseMarkerStyle(s string) (MarkerStyle, error) {
	for style, name := range markerNames {
		if strings.EqualFold(s, name) {
			return style, nil
		}
	}
	return MarkerBoth, errors.Errorf("unknown marker style %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m MarkerStyle) MarshalText() ([]byte, error) {
	if _, ok := markerNames[m]; !ok {
		return nil, errors.Errorf("unknown marker style %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MarkerStyle) UnmarshalText(text []byte) error {
	style, err := ParseMarkerStyle(string(text))
	if err != nil {
		return err
	}
	*m = style
	return nil
}

const (
	// DefaultMaxTrailThickness is the stroke width of the newest trail segment.
	DefaultMaxTrailThickness = 3
	// PointRadius is the filled dot radius in points mode.
	PointRadius = 3
	// RingRadius is the ring radius around the dot in points mode.
	RingRadius = 6
	// LabelScale is the FONT_HERSHEY_SIMPLEX scale of blob numbers.
	LabelScale = 0.5
	// LabelPadding is the patch margin around a label in pixels.
	LabelPadding = 2
)

// Style holds the visual options of a Renderer.
type Style struct {
	ShowTrails      bool
	ShowConnections bool
	ShowMarkers     bool
	// Marker is ignored when UsePoints is set.
	Marker    MarkerStyle
	UsePoints bool
	// ShowNumbers labels every blob with its 1-based rank.
	ShowNumbers bool
	// Invert draws black on white instead of white on black.
	Invert bool
	// MaxTrailThickness is the stroke width of the newest segment, at least 1.
	MaxTrailThickness int
	// ShowMask pastes a thumbnail of the detection mask in the corner.
	ShowMask bool
	// ShowWarmup draws a progress banner while the background is learned.
	ShowWarmup bool
}

// DefaultStyle returns the default look: trails, connections and both
// markers in white, no labels.
func DefaultStyle() Style {
	return Style{
		ShowTrails:        true,
		ShowConnections:   true,
		ShowMarkers:       true,
		Marker:            MarkerBoth,
		MaxTrailThickness: DefaultMaxTrailThickness,
	}
}

// Level maps an intensity in [0, 1] to the gray level drawn for it. Inverted
// levels are the bitwise complement of the normal ones.
func (s Style) Level(intensity float64) uint8 {
	v := uint8(math.Round(255 * clamp01(intensity)))
	if s.Invert {
		return 255 - v
	}
	return v
}

// Foreground is the flat color of full-intensity elements.
func (s Style) Foreground() color.RGBA {
	return gray(s.Level(1))
}

// Background is the contrasting patch color behind labels.
func (s Style) Background() color.RGBA {
	return gray(s.Level(0))
}

func gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}
