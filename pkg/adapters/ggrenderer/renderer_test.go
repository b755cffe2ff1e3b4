package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/seqwrite/pkg/ports"
)

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 80, color.Black)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	bounds := canvas.ToImage().Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("expected 100x80, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeDecodeJPEG(t *testing.T) {
	r := New()

	img := image.NewGray16(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(x * 1000)})
		}
	}

	data, err := r.EncodeImage(img, ports.FormatJPEG, 80)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty data")
	}

	decoded, err := r.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 50 || bounds.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeDecodePNG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 30 {
		t.Errorf("expected 30x30, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	r := New()
	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.FormatAuto, 0); err == nil {
		t.Error("expected error for FormatAuto")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	rgb := r.ResizeImage(image.NewRGBA(image.Rect(0, 0, 100, 100)), 50, 50)
	if b := rgb.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("expected 50x50, got %dx%d", b.Dx(), b.Dy())
	}
	if _, ok := rgb.(*image.RGBA64); !ok {
		t.Errorf("expected RGBA64, got %T", rgb)
	}

	gray := image.NewGray16(image.Rect(0, 0, 8, 8))
	for i := range gray.Pix {
		gray.Pix[i] = 0x80
	}
	small := r.ResizeImage(gray, 4, 4)
	g16, ok := small.(*image.Gray16)
	if !ok {
		t.Fatalf("expected Gray16, got %T", small)
	}
	if v := int(g16.Gray16At(1, 1).Y); v < 0x8000 || v > 0x8100 {
		t.Errorf("expected flat field to stay near 0x8080, got %#x", v)
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	red, green, _, _ := canvas.ToImage().At(20, 20).RGBA()
	if red == 0 || green != 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawStar(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(64, 64, color.Black)

	canvas.DrawStar(32, 32, 6, color.White)
	img := canvas.ToImage()

	centre, _, _, _ := img.At(32, 32).RGBA()
	edge, _, _, _ := img.At(36, 32).RGBA()
	outside, _, _, _ := img.At(50, 50).RGBA()
	if centre <= edge {
		t.Errorf("expected falloff from centre (%d) to edge (%d)", centre, edge)
	}
	if outside != 0 {
		t.Errorf("expected black background, got %d", outside)
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 50, color.Black)

	canvas.DrawText("frame 12", 4, 4, color.White)

	img := canvas.ToImage()
	lit := false
	for y := 4; y < 20 && !lit; y++ {
		for x := 4; x < 80; x++ {
			if v, _, _, _ := img.At(x, y).RGBA(); v > 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("expected text pixels below the anchor")
	}
}
