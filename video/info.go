// Package video adapts gocv capture, writer and window handles to the frame
// source, sink and preview interfaces of the controller package.
package video

import (
	"fmt"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/images"
)

// Info describes a video container or capture device.
type Info struct {
	Path       string
	Resolution images.Resolution
	FPS        float64
	// FrameCount is 0 for live devices.
	FrameCount int
	Duration   time.Duration
	Codec      string
}

// String renders the info block printed by the info command.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Path:        %s\n", i.Path)
	fmt.Fprintf(&b, "Resolution:  %s\n", i.Resolution)
	fmt.Fprintf(&b, "FPS:         %.2f\n", i.FPS)
	fmt.Fprintf(&b, "Frames:      %d\n", i.FrameCount)
	fmt.Fprintf(&b, "Duration:    %s (%.2f min)\n", i.Duration.Round(10*time.Millisecond), i.Duration.Minutes())
	fmt.Fprintf(&b, "Codec:       %s\n", i.Codec)
	return b.String()
}

// infoFromCapture reads the container properties of an open capture.
func infoFromCapture(path string, capture *gocv.VideoCapture) Info {
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))

	info := Info{
		Path:       path,
		Resolution: resolutionOf(width, height),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
		Codec:      FourCC(capture.Get(gocv.VideoCaptureFOURCC)),
	}
	if info.FrameCount < 0 {
		info.FrameCount = 0
	}
	info.Duration = DurationOf(info.FrameCount, info.FPS)
	return info
}

func resolutionOf(width, height int) images.Resolution {
	res, _ := images.ClassifyResolution(width, height)
	return res
}

// DurationOf is frames / fps, zero when fps is not positive.
func DurationOf(frames int, fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / fps * float64(time.Second))
}

// FourCC decodes the CAP_PROP_FOURCC value into its four characters.
// Non-printable bytes, as reported by some backends, give "".
func FourCC(v float64) string {
	code := uint32(v)
	if code == 0 {
		return ""
	}
	out := make([]byte, 4)
	for i := range out {
		c := byte(code >> (8 * i))
		if c < 0x20 || c > 0x7e {
			return ""
		}
		out[i] = c
	}
	return string(out)
}

// Probe opens a container, reads its properties and closes it again.
func Probe(path string) (Info, error) {
	source, err := OpenFile(path)
	if err != nil {
		return Info{Path: path}, err
	}
	defer source.Close()
	return source.Info(), nil
}
