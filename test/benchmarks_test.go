package test

import (
	"image"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/controller"
)

// reportHeap adds the live heap to the benchmark output.
func reportHeap(b *testing.B) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, "heap_MB")
}

// benchmarkFrames renders a 640x480 scene of five squares drifting apart.
func benchmarkFrames(n int) []gocv.Mat {
	gen := NewMockFrameGenerator(640, 480)
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gen.GenerateSquareFrame(12,
			image.Pt(50+i, 50),
			image.Pt(300, 60+i),
			image.Pt(500-i, 200),
			image.Pt(100+i, 400-i),
			image.Pt(320, 240),
		)
	}
	return frames
}

func benchmarkProcessFrame(b *testing.B, mode controller.Mode) {
	cfg := controller.DefaultConfig()
	cfg.Mode = mode
	cfg.BackgroundFrames = 5
	tracker, err := controller.New(cfg, zerolog.Nop())
	if err != nil {
		b.Fatal(err)
	}
	defer tracker.Close()

	frames := benchmarkFrames(30)
	defer func() {
		for i := range frames {
			frames[i].Close()
		}
	}()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		out, err := tracker.ProcessFrame(frames[i%len(frames)])
		if err != nil {
			b.Fatal(err)
		}
		out.Close()
	}
	b.StopTimer()

	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "frames/s")
	reportHeap(b)
}

func BenchmarkProcessFrameBright(b *testing.B) {
	benchmarkProcessFrame(b, controller.ModeBright)
}

func BenchmarkProcessFrameBoth(b *testing.B) {
	benchmarkProcessFrame(b, controller.ModeBoth)
}

func BenchmarkProcessFrameBackground(b *testing.B) {
	benchmarkProcessFrame(b, controller.ModeBackground)
}
