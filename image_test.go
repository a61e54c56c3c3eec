package texstream

import (
	"errors"
	"image"
	"testing"
)

func TestCachedImageEnsureReusesHandle(t *testing.T) {
	display := &mockDisplay{}
	ci := newCachedImage(testBuffer(64, 64, PixelFormatRGBA8888))
	crop := image.Rect(0, 0, 64, 64)

	if err := ci.ensure(display, crop, Capabilities{}); err != nil {
		t.Fatalf("ensure() = %v", err)
	}
	if err := ci.ensure(display, crop, Capabilities{}); err != nil {
		t.Fatalf("second ensure() = %v", err)
	}
	if len(display.images) != 1 {
		t.Errorf("created %d images for an unchanged (display, crop), want 1", len(display.images))
	}
}

func TestCachedImageEnsureDisplayChange(t *testing.T) {
	a := &mockDisplay{}
	b := &mockDisplay{}
	ci := newCachedImage(testBuffer(64, 64, PixelFormatRGBA8888))
	crop := image.Rect(0, 0, 64, 64)

	if err := ci.ensure(a, crop, Capabilities{}); err != nil {
		t.Fatalf("ensure(a) = %v", err)
	}
	if err := ci.ensure(b, crop, Capabilities{}); err != nil {
		t.Fatalf("ensure(b) = %v", err)
	}
	if !a.images[0].destroyed {
		t.Error("image for the old display not destroyed")
	}
	if len(b.images) != 1 {
		t.Errorf("no image created for the new display")
	}
}

func TestCachedImageEnsureCropChange(t *testing.T) {
	t.Run("crop is an image attribute", func(t *testing.T) {
		display := &mockDisplay{}
		ci := newCachedImage(testBuffer(64, 64, PixelFormatRGBA8888))
		caps := Capabilities{ImageCrop: true}

		if err := ci.ensure(display, image.Rect(0, 0, 32, 32), caps); err != nil {
			t.Fatal(err)
		}
		if err := ci.ensure(display, image.Rect(0, 0, 48, 48), caps); err != nil {
			t.Fatal(err)
		}
		if !display.images[0].destroyed {
			t.Error("stale-crop image not destroyed")
		}
		if len(display.images) != 2 {
			t.Fatalf("created %d images, want 2", len(display.images))
		}
		if got := display.images[1].desc.Crop; got != image.Rect(0, 0, 48, 48) {
			t.Errorf("new image crop = %v", got)
		}
	})

	t.Run("crop handled by the matrix", func(t *testing.T) {
		display := &mockDisplay{}
		ci := newCachedImage(testBuffer(64, 64, PixelFormatRGBA8888))

		if err := ci.ensure(display, image.Rect(0, 0, 32, 32), Capabilities{}); err != nil {
			t.Fatal(err)
		}
		if err := ci.ensure(display, image.Rect(0, 0, 48, 48), Capabilities{}); err != nil {
			t.Fatal(err)
		}
		if len(display.images) != 1 {
			t.Errorf("created %d images, want 1 (crop change is matrix-only)", len(display.images))
		}
	})
}

func TestCachedImageEnsureCropAttachment(t *testing.T) {
	tests := []struct {
		name    string
		caps    Capabilities
		crop    image.Rectangle
		useCrop bool
	}{
		{"supported, origin crop", Capabilities{ImageCrop: true}, image.Rect(0, 0, 32, 32), true},
		{"supported, offset crop", Capabilities{ImageCrop: true}, image.Rect(4, 4, 32, 32), false},
		{"unsupported", Capabilities{}, image.Rect(0, 0, 32, 32), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			display := &mockDisplay{}
			ci := newCachedImage(testBuffer(64, 64, PixelFormatRGBA8888))
			if err := ci.ensure(display, tt.crop, tt.caps); err != nil {
				t.Fatal(err)
			}
			if got := display.images[0].desc.UseCrop; got != tt.useCrop {
				t.Errorf("UseCrop = %v, want %v", got, tt.useCrop)
			}
		})
	}
}

func TestCachedImageEnsureFailureLeavesCacheEmpty(t *testing.T) {
	display := &mockDisplay{createImageErr: errors.New("device lost")}
	ci := newCachedImage(testBuffer(64, 64, PixelFormatRGBA8888))
	crop := image.Rect(0, 0, 64, 64)

	if err := ci.ensure(display, crop, Capabilities{}); !errors.Is(err, ErrImageCreation) {
		t.Fatalf("ensure() = %v, want ErrImageCreation", err)
	}
	if err := ci.bind(0, 1); !errors.Is(err, ErrNoCurrentImage) {
		t.Errorf("bind() after failed ensure = %v, want ErrNoCurrentImage", err)
	}

	display.createImageErr = nil
	if err := ci.ensure(display, crop, Capabilities{}); err != nil {
		t.Fatalf("retry ensure() = %v", err)
	}
	if err := ci.bind(0, 1); err != nil {
		t.Errorf("bind() after retry = %v", err)
	}
}

func TestCachedImageRefcount(t *testing.T) {
	display := &mockDisplay{}
	ci := newCachedImage(testBuffer(8, 8, PixelFormatRGBA8888))
	if err := ci.ensure(display, image.Rect(0, 0, 8, 8), Capabilities{}); err != nil {
		t.Fatal(err)
	}

	ci.retain()
	ci.release()
	if display.images[0].destroyed {
		t.Fatal("image destroyed with a reference outstanding")
	}
	ci.release()
	if !display.images[0].destroyed {
		t.Error("image not destroyed on the last release")
	}
}

func TestCachedImageBindError(t *testing.T) {
	display := &mockDisplay{bindErr: errors.New("bad target")}
	ci := newCachedImage(testBuffer(8, 8, PixelFormatRGBA8888))
	if err := ci.ensure(display, image.Rect(0, 0, 8, 8), Capabilities{}); err != nil {
		t.Fatal(err)
	}
	if err := ci.bind(0, 1); !errors.Is(err, ErrBindFailed) {
		t.Errorf("bind() = %v, want ErrBindFailed", err)
	}
}
