package gl

import (
	"testing"

	"github.com/webglnative/runtime/backend"
)

func TestConvertPixelsWidensRGBToRGBA(t *testing.T) {
	src := []byte{10, 20, 30, 40, 50, 60} // 2 RGB pixels
	format, out, err := convertPixels(2, 1, SourceRGB, src)
	if err != nil {
		t.Fatalf("convertPixels: %v", err)
	}
	if format != backend.PixelFormatRGBA8 {
		t.Fatalf("expected PixelFormatRGBA8, got %v", format)
	}
	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if len(out) != len(want) {
		t.Fatalf("output length = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestConvertPixelsLuminanceAlphaWidensToRG8(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	format, out, err := convertPixels(2, 1, SourceLuminanceAlpha, src)
	if err != nil {
		t.Fatalf("convertPixels: %v", err)
	}
	if format != backend.PixelFormatRG8 {
		t.Fatalf("expected PixelFormatRG8, got %v", format)
	}
	if len(out) != 4 {
		t.Fatalf("output length = %d, want 4", len(out))
	}
}

func TestConvertPixelsRejectsShortBuffer(t *testing.T) {
	if _, _, err := convertPixels(4, 4, SourceRGBA, make([]byte, 4)); err == nil {
		t.Fatal("expected error for undersized RGBA pixel buffer")
	}
}

func TestTexImage2DAndFlushUploadsBackendImage(t *testing.T) {
	c := newTestContext()
	th, err := c.CreateTexture()
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := c.ActiveTexture(0); err != nil {
		t.Fatalf("ActiveTexture: %v", err)
	}
	if err := c.BindTexture(th, false); err != nil {
		t.Fatalf("BindTexture: %v", err)
	}
	pixels := make([]byte, 4*4*4)
	if err := c.TexImage2D(4, 4, SourceRGBA, pixels); err != nil {
		t.Fatalf("TexImage2D: %v", err)
	}
	if err := c.flushTextures(); err != nil {
		t.Fatalf("flushTextures: %v", err)
	}

	tex := c.textures.Get(th)
	if !tex.hasBackend {
		t.Fatal("expected texture to have a backend image after flush")
	}
	if tex.dirtyPixels {
		t.Fatal("expected dirtyPixels to clear after flush")
	}
}

func TestBindTextureLocksTargetOnFirstBind(t *testing.T) {
	c := newTestContext()
	th, _ := c.CreateTexture()
	c.ActiveTexture(0)
	if err := c.BindTexture(th, false); err != nil {
		t.Fatalf("BindTexture(2D): %v", err)
	}
	if err := c.BindTexture(th, true); err == nil {
		t.Fatal("expected ErrWrongTarget rebinding a 2D texture as cube")
	}
}
