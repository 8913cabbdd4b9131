package video

import (
	"io"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/images"
)

// ErrDeviceClosed is returned when a capture device stops delivering frames.
var ErrDeviceClosed = errors.New("capture device closed")

// maxEmptyReads bounds consecutive empty frames from a device.
const maxEmptyReads = 100

// CaptureSource reads frames from a video file or a camera.
type CaptureSource struct {
	capture *gocv.VideoCapture
	name    string
	device  bool
}

// OpenFile opens a video container.
func OpenFile(path string) (*CaptureSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open video %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("open video %s: no decoder accepted the file", path)
	}
	return &CaptureSource{capture: capture, name: path}, nil
}

// OpenDevice opens a camera by index.
func OpenDevice(id int) (*CaptureSource, error) {
	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture device %d", id)
	}
	return &CaptureSource{capture: capture, name: "device", device: true}, nil
}

// Read grabs the next frame. Files end with io.EOF. Devices skip empty
// frames and fail with ErrDeviceClosed once reads stop succeeding.
func (s *CaptureSource) Read(dst *gocv.Mat) error {
	for empty := 0; empty < maxEmptyReads; empty++ {
		if ok := s.capture.Read(dst); !ok {
			if s.device {
				return ErrDeviceClosed
			}
			return io.EOF
		}
		if !dst.Empty() {
			return nil
		}
		if !s.device {
			return io.EOF
		}
	}
	return ErrDeviceClosed
}

// Info returns the container or device properties.
func (s *CaptureSource) Info() Info {
	return infoFromCapture(s.name, s.capture)
}

// RequestResolution asks the device for a frame size. Backends may ignore
// the request, Info reports what was granted.
func (s *CaptureSource) RequestResolution(res images.Resolution) {
	s.capture.Set(gocv.VideoCaptureFrameWidth, float64(res.Width))
	s.capture.Set(gocv.VideoCaptureFrameHeight, float64(res.Height))
}

// Close releases the capture.
func (s *CaptureSource) Close() error {
	return s.capture.Close()
}
