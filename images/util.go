package images

import (
	"crypto/md5"
	"fmt"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrUnsupportedMat is returned when a Mat is empty or is not 8-bit with one,
// three or four channels.
var ErrUnsupportedMat = errors.New("unsupported mat")

// ComputeMatChecksum generates a deterministic checksum for a Mat to verify idempotency.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := ComputeMatChecksum(frame)
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	hash := md5.New()
	hash.Write(mat.ToBytes())
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// CheckFrame reports whether a Mat can be fed to the detectors.
//
// Arguments:
//   - frame: The frame to validate.
//
// Returns:
//   - error: ErrUnsupportedMat (wrapped with the offending type) when the
//     frame is empty or not an 8-bit gray, BGR or BGRA image.
func CheckFrame(frame gocv.Mat) error {
	if frame.Empty() || frame.Rows() == 0 || frame.Cols() == 0 {
		return errors.Wrap(ErrUnsupportedMat, "frame is empty")
	}
	switch frame.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedMat, "frame type %v", frame.Type())
	}
}

// Luminance writes the single-channel luminance of frame into dst.
//
// Gray frames are copied as-is, BGR and BGRA frames are converted with the
// OpenCV BGR->GRAY weights.
//
// Arguments:
//   - frame: 8-bit gray, BGR or BGRA source.
//   - dst: Destination Mat, reallocated by OpenCV as needed.
//
// Returns:
//   - error: if the frame is not supported.
func Luminance(frame gocv.Mat, dst *gocv.Mat) error {
	if err := CheckFrame(frame); err != nil {
		return err
	}
	switch frame.Channels() {
	case 1:
		frame.CopyTo(dst)
	case 4:
		gocv.CvtColor(frame, dst, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(frame, dst, gocv.ColorBGRToGray)
	}
	return nil
}

// ToBGR returns a three-channel copy of frame that overlays can be drawn on.
// The caller owns the returned Mat.
func ToBGR(frame gocv.Mat) (gocv.Mat, error) {
	if err := CheckFrame(frame); err != nil {
		return gocv.NewMat(), err
	}
	out := gocv.NewMat()
	switch frame.Channels() {
	case 1:
		gocv.CvtColor(frame, &out, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(frame, &out, gocv.ColorBGRAToBGR)
	default:
		frame.CopyTo(&out)
	}
	return out, nil
}

// MatFromGray wraps a row-major luminance buffer as an 8UC1 Mat. The returned
// Mat is a deep copy, the caller may reuse data afterwards.
func MatFromGray(data []byte, width, height int) (gocv.Mat, error) {
	if len(data) != width*height {
		return gocv.NewMat(), errors.Errorf("gray buffer has %d bytes, want %dx%d", len(data), width, height)
	}
	view, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "wrap gray buffer")
	}
	defer view.Close()
	return view.Clone(), nil
}
