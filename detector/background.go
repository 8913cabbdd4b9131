package detector

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/images"
)

const (
	// DefaultBackgroundFrames is the number of frames the median is taken over.
	DefaultBackgroundFrames = 30
	// DefaultDiffThreshold is the normalised deviation that marks a pixel.
	DefaultDiffThreshold = 0.15
)

// ErrFrameSizeChanged is returned when a frame does not match the size of the
// frames the background was learned from.
var ErrFrameSizeChanged = errors.New("frame size changed")

// BackgroundState is the lifecycle state of a BackgroundModel.
type BackgroundState int

const (
	// Warming means fewer than Frames frames have been observed.
	Warming BackgroundState = iota
	// Ready means the reference image exists and frames are compared to it.
	Ready
)

// String returns the state name.
func (s BackgroundState) String() string {
	if s == Ready {
		return "ready"
	}
	return "warming"
}

// BackgroundPolicy selects what happens to the reference once it is Ready.
type BackgroundPolicy int

const (
	// BackgroundFrozen keeps the first reference for the whole run. Stable
	// against objects that stop moving, blind to slow lighting drift.
	BackgroundFrozen BackgroundPolicy = iota
	// BackgroundRolling pushes every Ready frame into the sample ring and
	// recomputes the median, so the reference follows the last Frames frames.
	BackgroundRolling
)

// BackgroundModel learns a per-pixel median of the first Frames frames and
// then reports regions that deviate from it.
//
// Samples live in one arena of Frames bytes per pixel, pixel-major, so the
// median of a pixel is taken over a contiguous slice.
type BackgroundModel struct {
	// Frames is the number of frames in the sample ring.
	Frames int
	// DiffThreshold marks pixels whose |luma/255 - reference| exceeds it.
	DiffThreshold float32
	// Policy selects frozen or rolling reference updates.
	Policy BackgroundPolicy

	extractor *BlobExtractor
	cleaner   *images.MaskCleaner

	state     BackgroundState
	width     int
	height    int
	observed  int
	next      int
	samples   []uint8
	reference []float32
	scratch   []uint8
	raw       []uint8

	gray gocv.Mat
	mask gocv.Mat
}

// NewBackgroundModel creates a model in the Warming state.
//
// Arguments:
//   - frames: Number of frames for the median, at least 1.
//   - diffThreshold: Deviation threshold in [0, 1].
//   - policy: Reference update policy.
//   - extractor: Shared component extractor, borrowed.
//
// Returns:
//   - *BackgroundModel: call Close() to release memory.
//   - error: on invalid arguments.
func NewBackgroundModel(frames int, diffThreshold float64, policy BackgroundPolicy, extractor *BlobExtractor) (*BackgroundModel, error) {
	if frames < 1 {
		return nil, errors.Errorf("background frames must be positive, got %d", frames)
	}
	if diffThreshold < 0 || diffThreshold > 1 {
		return nil, errors.Errorf("diff threshold must be within [0, 1], got %v", diffThreshold)
	}
	if extractor == nil {
		return nil, errors.New("background model needs an extractor")
	}
	return &BackgroundModel{
		Frames:        frames,
		DiffThreshold: float32(diffThreshold),
		Policy:        policy,
		extractor:     extractor,
		cleaner:       images.NewMaskCleaner(images.DefaultKernelSize),
		gray:          gocv.NewMat(),
		mask:          gocv.NewMat(),
	}, nil
}

// State returns the lifecycle state.
func (m *BackgroundModel) State() BackgroundState {
	return m.state
}

// Progress returns the warm-up fraction in [0, 1].
func (m *BackgroundModel) Progress() float64 {
	if m.state == Ready {
		return 1
	}
	return float64(m.observed) / float64(m.Frames)
}

// Reference returns a copy of the normalised reference image, row-major, or
// nil while Warming.
func (m *BackgroundModel) Reference() []float32 {
	if m.state != Ready {
		return nil
	}
	return slices.Clone(m.reference)
}

// Observe feeds one frame to the model.
//
// While Warming the frame is stored and no blobs are returned, including for
// the frame that completes the warm-up. Once Ready the frame is compared with
// the reference and the deviating regions are returned, largest first.
//
// Arguments:
//   - frame: 8-bit gray, BGR or BGRA frame.
//
// Returns:
//   - []Blob: PolarityDifference blobs, nil while Warming.
//   - error: on malformed frames or a size change.
func (m *BackgroundModel) Observe(frame gocv.Mat) ([]Blob, error) {
	if err := images.Luminance(frame, &m.gray); err != nil {
		return nil, errors.Wrap(err, "background model")
	}
	if err := m.ensureSize(m.gray.Cols(), m.gray.Rows()); err != nil {
		return nil, err
	}
	luma := m.gray.ToBytes()

	if m.state == Warming {
		m.store(luma)
		m.observed++
		if m.observed >= m.Frames {
			m.computeMedian()
			m.state = Ready
		}
		return nil, nil
	}

	blobs, err := m.detect(luma)
	if err != nil {
		return nil, err
	}
	if m.Policy == BackgroundRolling {
		m.store(luma)
		m.computeMedian()
	}
	m.observed++
	return blobs, nil
}

// Mask returns the cleaned mask of the last Ready frame. It is owned by the
// model.
func (m *BackgroundModel) Mask() gocv.Mat {
	return m.mask
}

// Reset drops every sample and returns the model to Warming. The next frame
// may have a different size.
func (m *BackgroundModel) Reset() {
	m.state = Warming
	m.observed = 0
	m.next = 0
	m.width, m.height = 0, 0
	m.samples = nil
	m.reference = nil
	m.scratch = nil
	m.raw = nil
}

// Close releases all OpenCV native resources used by the model.
func (m *BackgroundModel) Close() {
	m.cleaner.Close()
	m.gray.Close()
	m.mask.Close()
}

func (m *BackgroundModel) ensureSize(width, height int) error {
	if m.samples == nil {
		m.width, m.height = width, height
		pixels := width * height
		m.samples = make([]uint8, pixels*m.Frames)
		m.reference = make([]float32, pixels)
		m.scratch = make([]uint8, m.Frames)
		m.raw = make([]uint8, pixels)
		return nil
	}
	if width != m.width || height != m.height {
		return errors.Wrapf(ErrFrameSizeChanged, "got %dx%d, background is %dx%d", width, height, m.width, m.height)
	}
	return nil
}

// store writes one frame into ring slot m.next.
func (m *BackgroundModel) store(luma []uint8) {
	slot := m.next
	for p, v := range luma {
		m.samples[p*m.Frames+slot] = v
	}
	m.next = (m.next + 1) % m.Frames
}

// computeMedian recomputes the reference from the filled part of the ring.
// An even sample count averages the two middle values.
func (m *BackgroundModel) computeMedian() {
	n := m.Frames
	for p := range m.reference {
		copy(m.scratch, m.samples[p*n:(p+1)*n])
		slices.Sort(m.scratch)
		var median float32
		if n%2 == 1 {
			median = float32(m.scratch[n/2])
		} else {
			median = (float32(m.scratch[n/2-1]) + float32(m.scratch[n/2])) / 2
		}
		m.reference[p] = median / 255
	}
}

func (m *BackgroundModel) detect(luma []uint8) ([]Blob, error) {
	for p, v := range luma {
		score := math32.Abs(float32(v)/255 - m.reference[p])
		if score > m.DiffThreshold {
			m.raw[p] = 255
		} else {
			m.raw[p] = 0
		}
	}

	raw, err := images.MatFromGray(m.raw, m.width, m.height)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	if err := m.cleaner.Clean(raw, &m.mask); err != nil {
		return nil, err
	}
	return m.extractor.Extract(m.mask, PolarityDifference)
}
