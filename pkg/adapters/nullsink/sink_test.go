package nullsink

import (
	"image"
	"testing"
)

func TestSink(t *testing.T) {
	s := New()
	if s.Enabled() {
		t.Error("null sink must report disabled")
	}
	if err := s.SaveConfigJSON([]byte("{}")); err != nil {
		t.Errorf("SaveConfigJSON: %v", err)
	}
	if err := s.SaveFrame("main", 0, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Errorf("SaveFrame: %v", err)
	}
}
