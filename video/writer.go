package video

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultCodec is the FourCC used for output files.
	DefaultCodec = "mp4v"
	// DefaultFPS is used when the input does not report a frame rate.
	DefaultFPS = 30.0
)

// WriterSink encodes frames into a video file. The file is created on the
// first frame, whose size fixes the output size.
type WriterSink struct {
	Path  string
	Codec string
	FPS   float64

	writer *gocv.VideoWriter
	frames int
}

// NewWriterSink prepares a sink. Empty codec and non-positive fps fall back
// to DefaultCodec and DefaultFPS.
func NewWriterSink(path, codec string, fps float64) *WriterSink {
	if codec == "" {
		codec = DefaultCodec
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &WriterSink{Path: path, Codec: codec, FPS: fps}
}

// Write appends one frame.
func (w *WriterSink) Write(frame gocv.Mat) error {
	if frame.Empty() {
		return errors.New("cannot write an empty frame")
	}
	if w.writer == nil {
		writer, err := gocv.VideoWriterFile(w.Path, w.Codec, w.FPS, frame.Cols(), frame.Rows(), frame.Channels() == 3)
		if err != nil {
			return errors.Wrapf(err, "create %s", w.Path)
		}
		if !writer.IsOpened() {
			writer.Close()
			return errors.Errorf("create %s: codec %s unavailable", w.Path, w.Codec)
		}
		w.writer = writer
	}
	if err := w.writer.Write(frame); err != nil {
		return errors.Wrapf(err, "write frame %d", w.frames)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *WriterSink) Frames() int {
	return w.frames
}

// Close finalises the file. Closing a sink that never received a frame is a
// no-op.
func (w *WriterSink) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return errors.Wrapf(err, "close %s", w.Path)
}

// Recorder is a sink that only writes while recording. Each recording goes
// to its own file.
type Recorder struct {
	Codec string
	FPS   float64

	current *WriterSink
}

// Start begins recording to path, finishing any recording in progress.
func (r *Recorder) Start(path string) error {
	if err := r.Stop(); err != nil {
		return err
	}
	r.current = NewWriterSink(path, r.Codec, r.FPS)
	return nil
}

// Stop finishes the current recording, if any.
func (r *Recorder) Stop() error {
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}

// Recording reports whether frames are being written.
func (r *Recorder) Recording() bool {
	return r.current != nil
}

// Write records frame when recording and drops it otherwise.
func (r *Recorder) Write(frame gocv.Mat) error {
	if r.current == nil {
		return nil
	}
	return r.current.Write(frame)
}

// Close stops recording.
func (r *Recorder) Close() error {
	return r.Stop()
}
