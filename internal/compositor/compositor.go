// Package compositor overlays the drawing raster onto live camera frames.
package compositor

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// DefaultThreshold is the grayscale level a canvas pixel must exceed to be
// treated as drawn.
const DefaultThreshold = 50

// ErrSizeMismatch is returned when the frame and canvas differ in size.
var ErrSizeMismatch = errors.New("frame and canvas sizes differ")

// Compositor blends a canvas over frames with a binary mask. Its scratch
// Mats are reused across frames, so a Compositor serves one loop.
type Compositor struct {
	threshold float32
	gray      gocv.Mat
	mask      gocv.Mat
	maskBGR   gocv.Mat
}

// New creates a Compositor. A threshold <= 0 uses DefaultThreshold.
func New(threshold int) *Compositor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Compositor{
		threshold: float32(threshold),
		gray:      gocv.NewMat(),
		mask:      gocv.NewMat(),
		maskBGR:   gocv.NewMat(),
	}
}

// Composite writes the blended image into dst.
//
// Canvas pixels whose grayscale value is above the threshold replace the
// frame pixel; all others let the frame through:
//  1. Convert canvas to grayscale
//  2. Inverse binary threshold: drawn -> 0, empty -> 255
//  3. AND the frame with the mask to cut out drawn pixels
//  4. OR the canvas into the holes
func (c *Compositor) Composite(frame, canvas gocv.Mat, dst *gocv.Mat) error {
	if frame.Rows() != canvas.Rows() || frame.Cols() != canvas.Cols() {
		return ErrSizeMismatch
	}

	gocv.CvtColor(canvas, &c.gray, gocv.ColorBGRToGray)
	gocv.Threshold(c.gray, &c.mask, c.threshold, 255, gocv.ThresholdBinaryInv)
	gocv.CvtColor(c.mask, &c.maskBGR, gocv.ColorGrayToBGR)

	gocv.BitwiseAnd(frame, c.maskBGR, dst)
	gocv.BitwiseOr(*dst, canvas, dst)
	return nil
}

// Fit resizes frame in place to width x height when needed.
func Fit(frame *gocv.Mat, width, height int) {
	if frame.Cols() == width && frame.Rows() == height {
		return
	}
	gocv.Resize(*frame, frame, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
}

// Close releases the scratch buffers.
func (c *Compositor) Close() {
	c.gray.Close()
	c.mask.Close()
	c.maskBGR.Close()
}
