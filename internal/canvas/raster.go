package canvas

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Default canvas resolution.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ErrEmptyImage is returned when an image file decodes to nothing.
var ErrEmptyImage = errors.New("image is empty")

// Blank returns a black 3-channel raster of the given size.
func Blank(width, height int) gocv.Mat {
	return gocv.Zeros(height, width, gocv.MatTypeCV8UC3)
}

// Rasterize draws segs in order onto a blank raster. The caller owns the
// returned Mat.
func Rasterize(width, height int, segs []Segment) gocv.Mat {
	m := Blank(width, height)
	for _, s := range segs {
		drawSegment(&m, s)
	}
	return m
}

func drawSegment(m *gocv.Mat, s Segment) {
	gocv.Line(m, s.Start, s.End, s.Color, s.Thickness)
}

// RasterStore persists a raster under a path.
type RasterStore interface {
	// Write replaces whatever is stored at path with img.
	Write(path string, img gocv.Mat) error
	// Read loads the raster at path. A missing file yields an error that
	// satisfies errors.Is(err, os.ErrNotExist).
	Read(path string) (gocv.Mat, error)
}

// FileStore stores rasters as image files; the format follows the extension.
type FileStore struct{}

// Write encodes img next to path and renames it into place so a reader
// never observes a partially written file.
func (FileStore) Write(path string, img gocv.Mat) error {
	if img.Empty() {
		return ErrEmptyImage
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(path))
	if ok := gocv.IMWrite(tmp, img); !ok {
		os.Remove(tmp)
		return fmt.Errorf("encode %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Read decodes the image at path as a 3-channel raster.
func (FileStore) Read(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), err
	}

	m := gocv.IMRead(path, gocv.IMReadColor)
	if m.Empty() {
		m.Close()
		return gocv.NewMat(), fmt.Errorf("decode %s: %w", path, ErrEmptyImage)
	}
	return m, nil
}

// EncodePNG returns img encoded as PNG bytes.
func EncodePNG(img gocv.Mat) ([]byte, error) {
	return encode(gocv.PNGFileExt, img)
}

// EncodeJPEG returns img encoded as JPEG bytes.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	return encode(gocv.JPEGFileExt, img)
}

func encode(ext gocv.FileExt, img gocv.Mat) ([]byte, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}
	buf, err := gocv.IMEncode(ext, img)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// fit resizes src to width x height when the sizes differ. The caller owns
// the returned Mat; src is left untouched.
func fit(src gocv.Mat, width, height int) gocv.Mat {
	if src.Cols() == width && src.Rows() == height {
		return src.Clone()
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationNearestNeighbor)
	return dst
}
