// Package gesture turns hand landmarks into finger states and drawing mode events.
package gesture

import "github.com/ayusman/airmarker/internal/detector"

// Finger positions within a Fingers vector.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// tipIDs lists the fingertip landmark for each finger, thumb first.
var tipIDs = [NumFingers]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// Fingers reports which fingers are extended, indexed by Thumb..Pinky.
type Fingers [NumFingers]bool

// AllUp reports whether every finger is extended.
func (f Fingers) AllUp() bool {
	for _, up := range f {
		if !up {
			return false
		}
	}
	return true
}

// Count returns the number of extended fingers.
func (f Fingers) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// String renders the vector as five digits, thumb first, e.g. "01100".
func (f Fingers) String() string {
	b := make([]byte, NumFingers)
	for i, up := range f {
		b[i] = '0'
		if up {
			b[i] = '1'
		}
	}
	return string(b)
}

// Classify derives the finger-extension vector from pixel landmarks.
//
// A finger is extended when its tip is above (smaller y) its middle joint.
// The thumb folds sideways, so it is compared on x instead: it is extended
// when the tip lies to the right of the IP joint in the mirrored frame.
// Fewer than NumLandmarks points (including none) yields all-false.
func Classify(lms []detector.Landmark) Fingers {
	var f Fingers
	if len(lms) < detector.NumLandmarks {
		return f
	}

	f[Thumb] = lms[detector.ThumbTip].X > lms[detector.ThumbIP].X
	for i := Index; i < NumFingers; i++ {
		tip := tipIDs[i]
		f[i] = lms[tip].Y < lms[tip-2].Y
	}
	return f
}
