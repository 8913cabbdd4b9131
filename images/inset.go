package images

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// InsetSize is the thumbnail size of the debug mask view.
var InsetSize = image.Pt(160, 120)

// InsetMargin is the distance of the debug mask view from the frame corner.
const InsetMargin = 10

// DrawMaskInset scales a binary mask down to InsetSize and pastes it into the
// top-left corner of frame with a 1px white border. The thumbnail is clipped
// when the frame is smaller than the inset.
//
// Arguments:
//   - frame: BGR frame to draw on.
//   - mask: 8UC1 detection mask of the same source resolution.
//
// Returns:
//   - error: if the mask cannot be converted.
func DrawMaskInset(frame *gocv.Mat, mask gocv.Mat) error {
	if mask.Empty() {
		return nil
	}
	src, err := mask.ToImage()
	if err != nil {
		return errors.Wrap(err, "mask to image")
	}

	// Nearest neighbour keeps the thumbnail strictly binary.
	thumb := resize.Resize(uint(InsetSize.X), uint(InsetSize.Y), src, resize.NearestNeighbor)
	gray, ok := thumb.(*image.Gray)
	if !ok {
		gray = image.NewGray(thumb.Bounds())
		draw.Draw(gray, gray.Bounds(), thumb, thumb.Bounds().Min, draw.Src)
	}

	thumbMat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return errors.Wrap(err, "thumbnail to mat")
	}
	defer thumbMat.Close()

	thumbBGR := gocv.NewMat()
	defer thumbBGR.Close()
	gocv.CvtColor(thumbMat, &thumbBGR, gocv.ColorGrayToBGR)

	target := image.Rect(InsetMargin, InsetMargin, InsetMargin+InsetSize.X, InsetMargin+InsetSize.Y)
	visible, ok := ClipToFrame(target, frame.Cols(), frame.Rows())
	if !ok {
		return nil
	}

	dst := frame.Region(visible)
	defer dst.Close()
	part := thumbBGR.Region(image.Rect(0, 0, visible.Dx(), visible.Dy()))
	defer part.Close()
	part.CopyTo(&dst)

	gocv.Rectangle(frame, target, color.RGBA{255, 255, 255, 0}, 1)
	return nil
}
