package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageExtensions lists the file extensions treated as frames.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp"}

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number of the image file.
	Frame int
}

// Read returns the raw bytes of the image file.
func (f ImageFile) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read frame %d", f.Frame)
	}
	return data, nil
}

// IsImageFile reports whether path has one of ImageExtensions.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range ImageExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// FrameNumber parses the frame number out of names like "frame-12.png" or
// "12.png".
func FrameNumber(name string) (int, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	frame, err := strconv.Atoi(strings.TrimPrefix(base, "frame-"))
	if err != nil {
		return 0, errors.Errorf("%s is not a numbered frame", name)
	}
	return frame, nil
}

// LoadDirectoryImageFiles lists the numbered image files of a directory in
// frame order. Files are not read.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The frames, sorted by frame number.
// - error: Error if the directory cannot be read or a frame name has no number.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() || !IsImageFile(file.Name()) {
			continue
		}
		frame, err := FrameNumber(file.Name())
		if err != nil {
			return nil, err
		}
		images = append(images, ImageFile{
			Path:  filepath.Join(dir, file.Name()),
			Frame: frame,
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Frame < images[j].Frame
	})

	return images, nil
}
