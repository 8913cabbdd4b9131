package controller

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// MockSource yields a fixed number of gray frames, then io.EOF or failErr.
type MockSource struct {
	frames  int
	read    int
	failAt  int
	failErr error
}

func (m *MockSource) Read(dst *gocv.Mat) error {
	if m.failErr != nil && m.read == m.failAt {
		return m.failErr
	}
	if m.read >= m.frames {
		return io.EOF
	}
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(m.read), 0, 0, 0), 8, 8, gocv.MatTypeCV8UC1)
	defer frame.Close()
	frame.CopyTo(dst)
	m.read++
	return nil
}

func (m *MockSource) Close() error { return nil }

// MockSink records writes and closes.
type MockSink struct {
	written  int
	closed   int
	writeErr error
	closeErr error
}

func (m *MockSink) Write(frame gocv.Mat) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written++
	return nil
}

func (m *MockSink) Close() error {
	m.closed++
	return m.closeErr
}

// MockProcessor clones frames and fails on failAt when failErr is set.
type MockProcessor struct {
	calls   int
	failAt  int
	failErr error
}

func (m *MockProcessor) ProcessFrame(in gocv.Mat) (gocv.Mat, error) {
	defer func() { m.calls++ }()
	if m.failErr != nil && m.calls == m.failAt {
		return gocv.Mat{}, m.failErr
	}
	return in.Clone(), nil
}

// MockPreview stops after showing stopAfter frames.
type MockPreview struct {
	shown     int
	stopAfter int
}

func (m *MockPreview) Show(frame gocv.Mat) bool {
	m.shown++
	return m.shown < m.stopAfter
}

func TestRun_EndsAtEOF(t *testing.T) {
	source := &MockSource{frames: 5}
	sink := &MockSink{}
	var seen []int

	stats, err := Run(context.Background(), &MockProcessor{}, source, sink, RunOptions{
		OnFrame: func(index int) { seen = append(seen, index) },
	})
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Frames)
	assert.False(t, stats.Stopped)
	assert.NotEmpty(t, stats.RunID.String())
	assert.Equal(t, 5, sink.written)
	assert.Equal(t, 1, sink.closed)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestRun_EmptySource(t *testing.T) {
	sink := &MockSink{}
	stats, err := Run(context.Background(), &MockProcessor{}, &MockSource{}, sink, RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, stats.Frames)
	assert.Equal(t, 1, sink.closed)
}

func TestRun_FrameErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		source    *MockSource
		processor *MockProcessor
		sink      *MockSink
		wantStage Stage
		wantIndex int
	}{
		{
			name:      "Source",
			source:    &MockSource{frames: 5, failAt: 2, failErr: boom},
			processor: &MockProcessor{},
			sink:      &MockSink{},
			wantStage: StageSource,
			wantIndex: 2,
		},
		{
			name:      "Process",
			source:    &MockSource{frames: 5},
			processor: &MockProcessor{failAt: 3, failErr: boom},
			sink:      &MockSink{},
			wantStage: StageProcess,
			wantIndex: 3,
		},
		{
			name:      "Sink write",
			source:    &MockSource{frames: 5},
			processor: &MockProcessor{},
			sink:      &MockSink{writeErr: boom},
			wantStage: StageSink,
			wantIndex: 0,
		},
		{
			name:      "Sink close",
			source:    &MockSource{frames: 2},
			processor: &MockProcessor{},
			sink:      &MockSink{closeErr: boom},
			wantStage: StageSink,
			wantIndex: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.processor, tt.source, tt.sink, RunOptions{})
			require.Error(t, err)

			var frameErr *FrameError
			require.True(t, errors.As(err, &frameErr))
			assert.Equal(t, tt.wantStage, frameErr.Stage)
			assert.Equal(t, tt.wantIndex, frameErr.Index)
			assert.True(t, errors.Is(err, boom))
			assert.Equal(t, 1, tt.sink.closed, "sink closed exactly once")
		})
	}
}

func TestRun_CancelAtFrameBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &MockSource{frames: 10}
	sink := &MockSink{}
	stats, err := Run(ctx, &MockProcessor{}, source, sink, RunOptions{
		OnFrame: func(index int) {
			if index == 2 {
				cancel()
			}
		},
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, stats.Frames, "the frame in flight completes")
	assert.Equal(t, 3, sink.written)
	assert.Equal(t, 3, source.read)
	assert.Equal(t, 1, sink.closed)
}

func TestRun_PreviewStops(t *testing.T) {
	preview := &MockPreview{stopAfter: 2}
	sink := &MockSink{}

	stats, err := Run(context.Background(), &MockProcessor{}, &MockSource{frames: 10}, sink, RunOptions{Preview: preview})
	require.NoError(t, err)
	assert.True(t, stats.Stopped)
	assert.Equal(t, 2, stats.Frames)
	assert.Equal(t, 2, sink.written)
	assert.Equal(t, 1, sink.closed)
}

func TestRun_MaxFrames(t *testing.T) {
	source := &MockSource{frames: 10}
	stats, err := Run(context.Background(), &MockProcessor{}, source, &MockSink{}, RunOptions{MaxFrames: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Frames)
	assert.True(t, stats.Stopped)
	assert.Equal(t, 4, source.read)
}

func TestRun_LogsRun(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	stats, err := Run(context.Background(), &MockProcessor{}, &MockSource{frames: 1}, &MockSink{}, RunOptions{Logger: &logger})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), stats.RunID.String())
	assert.Contains(t, buf.String(), "run finished")
}

func TestRun_WithBlobTracker(t *testing.T) {
	tracker := newTestTracker(t, nil)
	sink := &MockSink{}

	stats, err := Run(context.Background(), tracker, &MockSource{frames: 3}, sink, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Frames)
	assert.Equal(t, 3, tracker.Frames())
}

func TestFrameError_Message(t *testing.T) {
	err := &FrameError{Index: 7, Stage: StageProcess, Err: errors.New("bad frame")}
	assert.Equal(t, "frame 7: process: bad frame", err.Error())
	assert.Equal(t, "bad frame", errors.Cause(err).Error())
}

func TestRun_Passthrough(t *testing.T) {
	sink := &MockSink{}
	stats, err := Run(context.Background(), Passthrough, &MockSource{frames: 2}, sink, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Frames)
	assert.Equal(t, 2, sink.written)
}
