// Package testdata builds synthetic camera frames and scripted hand
// detections for end-to-end tests.
package testdata

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/airmarker/internal/detector"
)

// Frames returns n black BGR frames of the given size. Release them with
// CloseFrames.
func Frames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

// CloseFrames releases frames returned by Frames.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// Stroke returns one detection per frame of a pointing hand whose index
// fingertip moves in a straight line from a to b. steps is the number of
// frames and must be at least 2.
func Stroke(a, b image.Point, steps, width, height int) [][]detector.HandLandmarks {
	if steps < 2 {
		steps = 2
	}
	seq := make([][]detector.HandLandmarks, steps)
	for i := range seq {
		p := image.Pt(
			a.X+(b.X-a.X)*i/(steps-1),
			a.Y+(b.Y-a.Y)*i/(steps-1),
		)
		seq[i] = hand(detector.PointingLandmarks(), p, width, height)
	}
	return seq
}

// Select returns a detection with index and middle fingers raised and the
// index fingertip at p.
func Select(p image.Point, width, height int) []detector.HandLandmarks {
	return hand(detector.TwoFingerLandmarks(), p, width, height)
}

// Palm returns a detection with all five fingers raised.
func Palm() []detector.HandLandmarks {
	return []detector.HandLandmarks{detector.OpenPalmLandmarks()}
}

// NoHand returns an empty detection.
func NoHand() []detector.HandLandmarks {
	return nil
}

// Concat joins detection scripts.
func Concat(parts ...[][]detector.HandLandmarks) [][]detector.HandLandmarks {
	var out [][]detector.HandLandmarks
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func hand(h detector.HandLandmarks, p image.Point, width, height int) []detector.HandLandmarks {
	placed := detector.PlaceIndexTip(h, float64(p.X)/float64(width), float64(p.Y)/float64(height))
	return []detector.HandLandmarks{placed}
}
