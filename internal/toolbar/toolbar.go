// Package toolbar loads the header images shown across the top of the frame.
package toolbar

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// Headers holds one resized header image per toolbar swatch.
type Headers struct {
	width    int
	height   int
	images   []gocv.Mat
	fallback gocv.Mat
}

// Load reads every image in dir (sorted by name), resizing each to
// width x height. A missing or unreadable directory yields Headers that
// render a plain dark band; the problem is logged, not returned.
func Load(dir string, width, height int) *Headers {
	h := &Headers{
		width:    width,
		height:   height,
		fallback: gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 40, 40, 0), height, width, gocv.MatTypeCV8UC3),
	}

	names, err := listImages(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("toolbar images unavailable, using plain header")
		return h
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		img := gocv.IMRead(path, gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			log.Warn().Str("path", path).Msg("skipping unreadable toolbar image")
			continue
		}

		resized := gocv.NewMat()
		gocv.Resize(img, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		img.Close()
		h.images = append(h.images, resized)
	}

	log.Debug().Int("count", len(h.images)).Str("dir", dir).Msg("toolbar images loaded")
	return h
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no images in %s", dir)
	}

	sort.Strings(names)
	return names, nil
}

// Len returns the number of loaded header images.
func (h *Headers) Len() int {
	return len(h.images)
}

// Height returns the header band height.
func (h *Headers) Height() int {
	return h.height
}

// Header returns the image for swatch i, or the plain band when there is none.
func (h *Headers) Header(i int) gocv.Mat {
	if i < 0 || i >= len(h.images) {
		return h.fallback
	}
	return h.images[i]
}

// Overlay copies the header for swatch i onto the top band of frame.
func (h *Headers) Overlay(frame *gocv.Mat, i int) {
	if frame.Cols() < h.width || frame.Rows() < h.height {
		return
	}
	roi := frame.Region(image.Rect(0, 0, h.width, h.height))
	defer roi.Close()
	h.Header(i).CopyTo(&roi)
}

// Close releases all header images.
func (h *Headers) Close() {
	for _, img := range h.images {
		img.Close()
	}
	h.images = nil
	h.fallback.Close()
}
