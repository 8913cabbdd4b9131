package detector

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/images"
)

// DefaultThreshold is the luminance cut for bright regions. Dark regions use
// 255 - DefaultThreshold.
const DefaultThreshold = 200

// ThresholdDetector finds bright or dark regions with a fixed luminance cut.
//
// It keeps scratch Mats between frames but no detection state: the result is
// a pure function of (frame, polarity, threshold).
type ThresholdDetector struct {
	// Threshold is applied as luma >= Threshold for bright regions and
	// luma <= 255-Threshold for dark regions.
	Threshold int

	extractor *BlobExtractor
	gray      gocv.Mat
	mask      gocv.Mat
	union     gocv.Mat
	both      bool
}

// NewThresholdDetector creates a detector that hands its masks to extractor.
// The extractor is borrowed, not owned.
//
// Arguments:
//   - threshold: Luminance cut in [0, 255].
//   - extractor: Shared component extractor.
//
// Returns:
//   - *ThresholdDetector: call Close() to release memory.
//   - error: if the threshold is out of range.
func NewThresholdDetector(threshold int, extractor *BlobExtractor) (*ThresholdDetector, error) {
	if threshold < 0 || threshold > 255 {
		return nil, errors.Errorf("threshold must be within [0, 255], got %d", threshold)
	}
	if extractor == nil {
		return nil, errors.New("threshold detector needs an extractor")
	}
	return &ThresholdDetector{
		Threshold: threshold,
		extractor: extractor,
		gray:      gocv.NewMat(),
		mask:      gocv.NewMat(),
		union:     gocv.NewMat(),
	}, nil
}

// Mask writes the binary mask for polarity into the detector's mask buffer
// and returns it. The returned Mat stays owned by the detector and is
// overwritten by the next call.
func (d *ThresholdDetector) Mask(frame gocv.Mat, polarity Polarity) (gocv.Mat, error) {
	if err := images.Luminance(frame, &d.gray); err != nil {
		return d.mask, errors.Wrap(err, "threshold detector")
	}

	switch polarity {
	case PolarityBright:
		// THRESH_BINARY keeps pixels strictly above the cut.
		gocv.Threshold(d.gray, &d.mask, float32(d.Threshold-1), 255, gocv.ThresholdBinary)
	case PolarityDark:
		// THRESH_BINARY_INV keeps pixels at or below the cut.
		gocv.Threshold(d.gray, &d.mask, float32(255-d.Threshold), 255, gocv.ThresholdBinaryInv)
	default:
		return d.mask, errors.Errorf("threshold detector cannot detect %s regions", polarity)
	}
	return d.mask, nil
}

// Detect returns the blobs of the given polarity, largest first, capped by
// the extractor's MaxBlobs.
//
// Arguments:
//   - frame: 8-bit gray, BGR or BGRA frame.
//   - polarity: PolarityBright or PolarityDark.
//
// Returns:
//   - []Blob: the detected blobs, possibly empty.
//   - error: on malformed frames or an unsupported polarity.
func (d *ThresholdDetector) Detect(frame gocv.Mat, polarity Polarity) ([]Blob, error) {
	d.both = false
	mask, err := d.Mask(frame, polarity)
	if err != nil {
		return nil, err
	}
	return d.extractor.Extract(mask, polarity)
}

// DetectBoth merges bright and dark detections before ranking them, so the
// MaxBlobs cap applies to the union.
//
// Below a threshold of 128 the two cuts overlap. Pixels in the overlap count
// as bright only, so no region is reported under both polarities.
func (d *ThresholdDetector) DetectBoth(frame gocv.Mat) ([]Blob, error) {
	d.both = true
	var all []Blob
	for i, polarity := range []Polarity{PolarityBright, PolarityDark} {
		mask, err := d.Mask(frame, polarity)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			mask.CopyTo(&d.union)
		} else {
			gocv.Subtract(mask, d.union, &mask)
			gocv.BitwiseOr(d.union, mask, &d.union)
		}
		blobs, err := d.extractor.Components(mask, polarity)
		if err != nil {
			return nil, err
		}
		all = append(all, blobs...)
	}
	return SortAndLimit(all, d.extractor.MaxBlobs), nil
}

// LastMask returns the most recent mask, the bright/dark union after
// DetectBoth. It is owned by the detector.
func (d *ThresholdDetector) LastMask() gocv.Mat {
	if d.both {
		return d.union
	}
	return d.mask
}

// Close releases all OpenCV native resources used by the detector.
func (d *ThresholdDetector) Close() {
	d.gray.Close()
	d.mask.Close()
	d.union.Close()
}
