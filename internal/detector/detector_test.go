package detector

import (
	"errors"
	"testing"
)

func TestHandLandmarks_Pixels(t *testing.T) {
	t.Run("scales normalized points to frame size", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.5}
		hand.Points[IndexTip] = Point3D{X: 0.25, Y: 0.1}

		lms := hand.Pixels(1280, 720)

		if len(lms) != NumLandmarks {
			t.Fatalf("expected %d landmarks, got %d", NumLandmarks, len(lms))
		}
		if lms[Wrist] != (Landmark{ID: Wrist, X: 640, Y: 360}) {
			t.Errorf("unexpected wrist landmark %+v", lms[Wrist])
		}
		if lms[IndexTip] != (Landmark{ID: IndexTip, X: 320, Y: 72}) {
			t.Errorf("unexpected index tip landmark %+v", lms[IndexTip])
		}
	})

	t.Run("ids follow landmark order", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		for i, lm := range hand.Pixels(640, 480) {
			if lm.ID != i {
				t.Errorf("landmark %d has id %d", i, lm.ID)
			}
		}
	})

	t.Run("rounds to nearest pixel", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[ThumbTip] = Point3D{X: 0.5004, Y: 0.4996}

		lm := hand.Pixels(1000, 1000)[ThumbTip]
		if lm.X != 500 || lm.Y != 500 {
			t.Errorf("expected (500,500), got (%d,%d)", lm.X, lm.Y)
		}
	})

	t.Run("nil hand or empty frame returns nil", func(t *testing.T) {
		var hand *HandLandmarks
		if hand.Pixels(1280, 720) != nil {
			t.Error("expected nil for nil hand")
		}

		palm := OpenPalmLandmarks()
		if palm.Pixels(0, 720) != nil {
			t.Error("expected nil for zero width")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{PointingLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("plays sequence before falling back", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{FistLandmarks()})
		mock.SetSequence([][]HandLandmarks{
			{PointingLandmarks()},
			nil,
		})

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if len(first) != 1 || first[0] != PointingLandmarks() {
			t.Errorf("first call should return the pointing hand")
		}
		if len(second) != 0 {
			t.Errorf("second call should return no hands, got %d", len(second))
		}
		if len(third) != 1 || third[0] != FistLandmarks() {
			t.Errorf("third call should fall back to configured hands")
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPresets(t *testing.T) {
	extended := func(h HandLandmarks, tip int) bool {
		return h.Points[tip].Y < h.Points[tip-2].Y
	}

	tests := []struct {
		name  string
		hand  HandLandmarks
		thumb bool
		want  [4]bool
	}{
		{"open palm", OpenPalmLandmarks(), true, [4]bool{true, true, true, true}},
		{"pointing", PointingLandmarks(), false, [4]bool{true, false, false, false}},
		{"two finger", TwoFingerLandmarks(), false, [4]bool{true, true, false, false}},
		{"fist", FistLandmarks(), false, [4]bool{false, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb := tt.hand.Points[ThumbTip].X > tt.hand.Points[ThumbIP].X
			if thumb != tt.thumb {
				t.Errorf("thumb extended = %v, want %v", thumb, tt.thumb)
			}
			for i, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
				if got := extended(tt.hand, tip); got != tt.want[i] {
					t.Errorf("finger tip %d extended = %v, want %v", tip, got, tt.want[i])
				}
			}
		})
	}
}

func TestPlaceIndexTip(t *testing.T) {
	hand := PlaceIndexTip(PointingLandmarks(), 0.2, 0.1)

	if hand.Points[IndexTip].X != 0.2 || hand.Points[IndexTip].Y != 0.1 {
		t.Errorf("index tip at (%f,%f), want (0.2,0.1)", hand.Points[IndexTip].X, hand.Points[IndexTip].Y)
	}

	// The pose itself must be unchanged by translation.
	orig := PointingLandmarks()
	dx := orig.Points[Wrist].X - orig.Points[IndexTip].X
	got := hand.Points[Wrist].X - hand.Points[IndexTip].X
	if diff := dx - got; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("wrist offset changed: %f vs %f", dx, got)
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("parses full hands and skips partial ones", func(t *testing.T) {
		points := `[` + repeatPoint(NumLandmarks) + `]`
		partial := `[` + repeatPoint(3) + `]`
		line := `{"hands":[{"points":` + points + `,"handedness":"Left","score":0.9},{"points":` + partial + `}]}`

		hands, err := decodeResponse([]byte(line))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Left" {
			t.Errorf("expected Left, got %s", hands[0].Handedness)
		}
		if hands[0].Points[PinkyTip].X != 0.5 {
			t.Errorf("expected pinky x 0.5, got %f", hands[0].Points[PinkyTip].X)
		}
	})

	t.Run("empty hands", func(t *testing.T) {
		hands, err := decodeResponse([]byte(`{"hands":[]}`))
		if err != nil || len(hands) != 0 {
			t.Errorf("expected no hands and no error, got %v %v", hands, err)
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := decodeResponse([]byte(`{"error":"model missing"}`)); err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := decodeResponse([]byte(`{not json`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestNewMediaPipeDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptPath = "/nonexistent/hand_service.py"

	if _, err := NewMediaPipeDetector(cfg); err == nil {
		t.Error("expected error for missing script")
	}
}

func repeatPoint(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x":0.5,"y":0.25,"z":0}`
	}
	return s
}
