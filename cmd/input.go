package cmd

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/blobtrail/controller"
	"github.com/nvr-ai/blobtrail/util"
	"github.com/nvr-ai/blobtrail/video"
)

var supportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// InputType is the kind of frame source an input argument names.
type InputType int

const (
	InputDevice InputType = iota
	InputVideo
	InputImage
	InputSequence
)

// Input is a validated input argument.
type Input struct {
	Type     InputType
	Path     string
	DeviceID int
}

// parseInput classifies arg: a bare integer is a capture device, a directory
// is an image sequence and a file must carry a video or image extension.
func parseInput(arg string) (Input, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		if id < 0 {
			return Input{}, errors.Errorf("invalid device index %d", id)
		}
		return Input{Type: InputDevice, DeviceID: id}, nil
	}

	stat, err := os.Stat(arg)
	if err != nil {
		if os.IsNotExist(err) {
			return Input{}, errors.Errorf("file not found: %s", arg)
		}
		return Input{}, errors.Wrapf(err, "stat %s", arg)
	}
	if stat.IsDir() {
		return Input{Type: InputSequence, Path: arg}, nil
	}
	if util.IsImageFile(arg) {
		return Input{Type: InputImage, Path: arg}, nil
	}
	if err := validateExtension(arg, supportedVideoExtensions); err != nil {
		return Input{}, err
	}
	return Input{Type: InputVideo, Path: arg}, nil
}

// validateExtension checks that the file has a supported extension.
func validateExtension(path string, supported []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range supported {
		if ext == s {
			return nil
		}
	}
	return errors.Errorf("unsupported file extension: %q, supported extensions: %v", ext, supported)
}

// openInput opens the frame source for in. The returned Info carries
// whatever the source knows about its frame rate and length.
func openInput(in Input) (controller.Source, video.Info, error) {
	switch in.Type {
	case InputDevice:
		src, err := video.OpenDevice(in.DeviceID)
		if err != nil {
			return nil, video.Info{}, err
		}
		return src, src.Info(), nil
	case InputVideo:
		src, err := video.OpenFile(in.Path)
		if err != nil {
			return nil, video.Info{}, err
		}
		return src, src.Info(), nil
	case InputSequence:
		src, err := video.OpenImageSequence(in.Path)
		if err != nil {
			return nil, video.Info{}, err
		}
		return src, video.Info{Path: in.Path, FrameCount: src.Len()}, nil
	case InputImage:
		return video.OpenImage(in.Path), video.Info{Path: in.Path, FrameCount: 1}, nil
	default:
		return nil, video.Info{}, errors.Errorf("unknown input type %d", in.Type)
	}
}

// samePath reports whether a and b resolve to the same file.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
