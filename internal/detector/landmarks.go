// Package detector provides the hand landmark source consumed by the drawing pipeline.
package detector

import (
	"image"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position as reported by MediaPipe: X and Y are
// normalized to [0,1] of the frame, Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Landmark is one labeled keypoint in frame pixel coordinates.
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// Point returns the landmark position as an image.Point.
func (l Landmark) Point() image.Point {
	return image.Point{X: l.X, Y: l.Y}
}

// Pixels converts the normalized landmarks into pixel coordinates for a
// frame of the given size. The result is ordered by landmark ID.
func (h *HandLandmarks) Pixels(width, height int) []Landmark {
	if h == nil || width <= 0 || height <= 0 {
		return nil
	}

	out := make([]Landmark, NumLandmarks)
	for i, p := range h.Points {
		out[i] = Landmark{
			ID: i,
			X:  int(math.Round(p.X * float64(width))),
			Y:  int(math.Round(p.Y * float64(height))),
		}
	}
	return out
}
