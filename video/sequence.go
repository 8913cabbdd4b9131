package video

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/util"
)

// ImageSequenceSource reads numbered still images (frame-N.png) in frame
// order. A single image file is a one-frame sequence.
type ImageSequenceSource struct {
	files []util.ImageFile
	next  int
}

// OpenImageSequence lists the frames of dir.
func OpenImageSequence(dir string) (*ImageSequenceSource, error) {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("%s holds no numbered images", dir)
	}
	return &ImageSequenceSource{files: files}, nil
}

// OpenImage wraps one image file as a sequence.
func OpenImage(path string) *ImageSequenceSource {
	return &ImageSequenceSource{files: []util.ImageFile{{Path: path}}}
}

// Len returns the number of frames in the sequence.
func (s *ImageSequenceSource) Len() int {
	return len(s.files)
}

// Read decodes the next image into dst, io.EOF after the last one.
func (s *ImageSequenceSource) Read(dst *gocv.Mat) error {
	if s.next >= len(s.files) {
		return io.EOF
	}
	file := s.files[s.next]
	s.next++

	data, err := file.Read()
	if err != nil {
		return err
	}
	img, err := decodeFrame(file.Path, data)
	if err != nil {
		return errors.Wrapf(err, "decode %s", file.Path)
	}
	defer img.Close()
	if img.Empty() {
		return errors.Errorf("decode %s: not an image", file.Path)
	}
	img.CopyTo(dst)
	return nil
}

// decodeFrame decodes an encoded still into a BGR Mat. WebP is decoded in Go.
func decodeFrame(path string, data []byte) (gocv.Mat, error) {
	if strings.ToLower(filepath.Ext(path)) != ".webp" {
		return gocv.IMDecode(data, gocv.IMReadColor)
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.NewMat(), err
	}
	return gocv.ImageToMatRGB(img)
}

// Close is a no-op, files are read one at a time.
func (s *ImageSequenceSource) Close() error {
	return nil
}
