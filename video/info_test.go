package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/blobtrail/images"
)

func fourCCValue(s string) float64 {
	return float64(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
}

func TestFourCC(t *testing.T) {
	assert.Equal(t, "mp4v", FourCC(fourCCValue("mp4v")))
	assert.Equal(t, "MJPG", FourCC(fourCCValue("MJPG")))
	assert.Equal(t, "", FourCC(0))
	assert.Equal(t, "", FourCC(3), "non-printable")
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, 10*time.Second, DurationOf(300, 30))
	assert.Equal(t, 500*time.Millisecond, DurationOf(12, 24))
	assert.Zero(t, DurationOf(100, 0))
}

func TestInfo_String(t *testing.T) {
	res, _ := images.ClassifyResolution(1280, 720)
	info := Info{Path: "clip.mp4", Resolution: res, FPS: 30, FrameCount: 300, Duration: 10 * time.Second, Codec: "mp4v"}

	out := info.String()
	assert.Contains(t, out, "HD 720p (1280x720")
	assert.Contains(t, out, "30.00")
	assert.Contains(t, out, "300")
	assert.Contains(t, out, "10s (0.17 min)")
}
