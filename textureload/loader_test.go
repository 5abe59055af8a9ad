// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package textureload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/quadatlas/gpucore"
)

type uploadedTexture struct {
	label  string
	width  uint32
	height uint32
	pixels []byte
}

// recordingDevice captures texture uploads. Buffer methods are unused by
// the loader and fail loudly if called.
type recordingDevice struct {
	textures []uploadedTexture
	fail     bool
}

var errRecordingDevice = errors.New("recording device failure")

func (d *recordingDevice) CreateBuffer(string, uint64, gpucore.BufferUsage) (gpucore.BufferID, error) {
	return gpucore.InvalidID, errors.New("unexpected CreateBuffer")
}

func (d *recordingDevice) ReallocBuffer(gpucore.BufferID, uint64) (gpucore.BufferID, error) {
	return gpucore.InvalidID, errors.New("unexpected ReallocBuffer")
}

func (d *recordingDevice) WriteBuffer(gpucore.BufferID, uint64, []byte) error {
	return errors.New("unexpected WriteBuffer")
}

func (d *recordingDevice) DestroyBuffer(gpucore.BufferID) error { return nil }

func (d *recordingDevice) CreateTexture(label string, width, height uint32, pixels []byte) (gpucore.TextureID, error) {
	if d.fail {
		return gpucore.InvalidID, errRecordingDevice
	}
	d.textures = append(d.textures, uploadedTexture{
		label:  label,
		width:  width,
		height: height,
		pixels: bytes.Clone(pixels),
	})
	return gpucore.TextureID(len(d.textures)), nil
}

func (d *recordingDevice) DestroyTexture(gpucore.TextureID) error { return nil }

var _ gpucore.Device = (*recordingDevice)(nil)

// testPNG encodes a width x height image where pixel (0,0) is opaque red
// and the rest is opaque blue.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFileLoader_LoadTexture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.png")
	if err := os.WriteFile(path, testPNG(t, 4, 3), 0o644); err != nil {
		t.Fatal(err)
	}

	device := &recordingDevice{}
	loader := &FileLoader{}

	tex, err := loader.LoadTexture(device, path)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if tex.Width() != 4 || tex.Height() != 3 {
		t.Errorf("texture size = %dx%d, want 4x3", tex.Width(), tex.Height())
	}
	if tex.ID() == gpucore.InvalidID {
		t.Error("texture ID is invalid")
	}

	if len(device.textures) != 1 {
		t.Fatalf("uploads = %d, want 1", len(device.textures))
	}
	up := device.textures[0]
	if up.label != "sprite.png" {
		t.Errorf("label = %q, want %q", up.label, "sprite.png")
	}
	if up.width != 4 || up.height != 3 {
		t.Errorf("upload size = %dx%d, want 4x3", up.width, up.height)
	}
	if want := 4 * 3 * 4; len(up.pixels) != want {
		t.Fatalf("pixel bytes = %d, want %d", len(up.pixels), want)
	}
	// Pixel (0,0) is opaque red, pixel (1,0) opaque blue.
	if up.pixels[0] != 255 || up.pixels[3] != 255 {
		t.Errorf("pixel (0,0) = %v, want opaque red", up.pixels[0:4])
	}
	if up.pixels[6] != 255 || up.pixels[7] != 255 {
		t.Errorf("pixel (1,0) = %v, want opaque blue", up.pixels[4:8])
	}
}

func TestFileLoader_LoadTextureMissingFile(t *testing.T) {
	loader := &FileLoader{}
	if _, err := loader.LoadTexture(&recordingDevice{}, filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileLoader_LoadFromBytes(t *testing.T) {
	device := &recordingDevice{}
	loader := &FileLoader{}

	tex, err := loader.LoadFromBytes(device, testPNG(t, 2, 2), "mem")
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if tex.Width() != 2 || tex.Height() != 2 {
		t.Errorf("texture size = %dx%d, want 2x2", tex.Width(), tex.Height())
	}

	if _, err := loader.LoadFromBytes(device, nil, "empty"); !errors.Is(err, ErrEmptyData) {
		t.Errorf("empty data error = %v, want ErrEmptyData", err)
	}
	if _, err := loader.LoadFromBytes(device, []byte("not an image"), "junk"); err == nil {
		t.Error("expected decode error for junk data")
	}
}

func TestFileLoader_UploadFailure(t *testing.T) {
	loader := &FileLoader{}
	_, err := loader.LoadFromBytes(&recordingDevice{fail: true}, testPNG(t, 2, 2), "fail")
	if !errors.Is(err, errRecordingDevice) {
		t.Errorf("error = %v, want wrapped device failure", err)
	}
}

func TestFileLoader_MaxSizeDownscales(t *testing.T) {
	device := &recordingDevice{}
	loader := &FileLoader{MaxSize: 8}

	tex, err := loader.LoadFromBytes(device, testPNG(t, 32, 16), "big")
	if err != nil {
		t.Fatalf("LoadFromBytes: %v", err)
	}
	if tex.Width() != 8 || tex.Height() != 4 {
		t.Errorf("texture size = %dx%d, want 8x4", tex.Width(), tex.Height())
	}
}

func TestToRGBA_FastPath(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	if got := toRGBA(src, 0); got != src {
		t.Error("tight RGBA image should be returned unchanged")
	}
}

func TestToRGBA_ConvertsOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 8, 8))
	got := toRGBA(src, 0)
	if got == src {
		t.Error("offset image should be copied to a zero origin")
	}
	if b := got.Bounds(); b.Min != (image.Point{}) || b.Dx() != 3 || b.Dy() != 3 {
		t.Errorf("bounds = %v, want (0,0)-(3,3)", b)
	}
}
