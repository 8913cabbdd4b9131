// Package images provides named video resolutions so container metadata can
// be reported with a familiar label (e.g. "Full HD 1080p").
package images

import (
	"fmt"
	"math"
)

// ResolutionType represents a common name for a video resolution.
type ResolutionType string

// Defines the resolutions the info command knows by name.
const (
	ResolutionTypeVGA      ResolutionType = "VGA"
	ResolutionTypeNHD      ResolutionType = "nHD"
	ResolutionTypeFWVGA    ResolutionType = "FWVGA"
	ResolutionTypeQHD540   ResolutionType = "qHD 540p"
	ResolutionTypeHD720p   ResolutionType = "HD 720p"
	ResolutionTypeFHD1080p ResolutionType = "Full HD 1080p"
	ResolutionTypeQHD1440p ResolutionType = "QHD 1440p"
	ResolutionType4KUHD    ResolutionType = "4K UHD"
	ResolutionType8KUHD    ResolutionType = "8K UHD"
)

// Resolution describes a named frame size.
type Resolution struct {
	Name   ResolutionType `json:"name" yaml:"name"`
	Width  int            `json:"width" yaml:"width"`
	Height int            `json:"height" yaml:"height"`
}

// GetMegaPixels calculates the megapixel value based on the resolution's pixel dimensions.
// It returns the value rounded to two decimal places (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	if r.Name == "" {
		return fmt.Sprintf("%dx%d, %.2fMP", r.Width, r.Height, r.GetMegaPixels())
	}
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.GetMegaPixels())
}

// resolutions is ordered by pixel count, ascending.
var resolutions = []Resolution{
	{Name: ResolutionTypeNHD, Width: 640, Height: 360},
	{Name: ResolutionTypeVGA, Width: 640, Height: 480},
	{Name: ResolutionTypeFWVGA, Width: 854, Height: 480},
	{Name: ResolutionTypeQHD540, Width: 960, Height: 540},
	{Name: ResolutionTypeHD720p, Width: 1280, Height: 720},
	{Name: ResolutionTypeFHD1080p, Width: 1920, Height: 1080},
	{Name: ResolutionTypeQHD1440p, Width: 2560, Height: 1440},
	{Name: ResolutionType4KUHD, Width: 3840, Height: 2160},
	{Name: ResolutionType8KUHD, Width: 7680, Height: 4320},
}

// ClassifyResolution names a frame size.
//
// Arguments:
//   - width: Frame width in pixels.
//   - height: Frame height in pixels.
//
// Returns:
//   - Resolution: The exact match when one exists, otherwise an unnamed
//     Resolution carrying the given size.
//   - bool: true on an exact match.
func ClassifyResolution(width, height int) (Resolution, bool) {
	for _, res := range resolutions {
		if res.Width == width && res.Height == height {
			return res, true
		}
	}
	return Resolution{Width: width, Height: height}, false
}

// GetHighestResolutionUnderDimensions retrieves the highest resolution that fits inside the given width and height.
//
// Arguments:
//   - width: The maximum possible width of the image.
//   - height: The maximum possible height of the image.
//
// Returns:
//   - Resolution: The highest resolution that is under the given width and height.
//   - bool: True if a resolution was found, otherwise false.
func GetHighestResolutionUnderDimensions(width, height int) (Resolution, bool) {
	var highest Resolution
	var found bool

	for _, res := range resolutions {
		if res.Width <= width && res.Height <= height {
			if !found || res.Width*res.Height > highest.Width*highest.Height {
				highest = res
				found = true
			}
		}
	}
	return highest, found
}
