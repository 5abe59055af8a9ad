// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package textureload loads image files into atlas textures. It decodes
// with format auto-detection (PNG, JPEG, GIF, BMP, TIFF, WebP), converts
// to premultiplied RGBA8 and uploads through a gpucore.Device.
package textureload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	// Register decoders for format auto-detection.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/quadatlas"
	"github.com/gogpu/quadatlas/gpucore"
)

// Loader errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("textureload: empty data")

	// ErrZeroSize is returned when a decoded image has no pixels.
	ErrZeroSize = errors.New("textureload: image has zero size")
)

// FileLoader loads textures from image files on disk.
//
// MaxSize, when positive, caps both dimensions: larger images are scaled
// down proportionally with bilinear filtering before upload.
type FileLoader struct {
	MaxSize int
}

// Interface compliance check.
var _ quadatlas.TextureProvider = (*FileLoader)(nil)

// LoadTexture decodes the image at path and creates a GPU texture from it.
func (l *FileLoader) LoadTexture(device gpucore.Device, path string) (*quadatlas.Texture, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("textureload: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return l.decode(device, f, filepath.Base(path))
}

// LoadFromReader decodes an image from r and creates a GPU texture. The
// label names the texture for debugging.
func (l *FileLoader) LoadFromReader(device gpucore.Device, r io.Reader, label string) (*quadatlas.Texture, error) {
	return l.decode(device, r, label)
}

// LoadFromBytes decodes an image from a byte slice and creates a GPU
// texture.
func (l *FileLoader) LoadFromBytes(device gpucore.Device, data []byte, label string) (*quadatlas.Texture, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return l.decode(device, bytes.NewReader(data), label)
}

func (l *FileLoader) decode(device gpucore.Device, r io.Reader, label string) (*quadatlas.Texture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("textureload: decode: %w", err)
	}

	rgba := toRGBA(img, l.MaxSize)
	bounds := rgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, ErrZeroSize
	}

	//nolint:gosec // dimensions are positive
	id, err := device.CreateTexture(label, uint32(width), uint32(height), rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("textureload: upload %q: %w", label, err)
	}

	quadatlas.Logger().Debug("textureload: texture loaded",
		"label", label, "format", format, "width", width, "height", height)

	//nolint:gosec // dimensions are positive
	return quadatlas.NewTexture(id, uint32(width), uint32(height)), nil
}

// toRGBA converts any decoded image to premultiplied RGBA8 with a zero
// origin, downscaling if maxSize is positive and exceeded.
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if maxSize > 0 && (width > maxSize || height > maxSize) {
		scale := float64(maxSize) / float64(max(width, height))
		scaledW := max(int(float64(width)*scale), 1)
		scaledH := max(int(float64(height)*scale), 1)
		dst := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		return dst
	}

	// Fast path: already RGBA at origin with tight stride.
	if rgba, ok := img.(*image.RGBA); ok &&
		bounds.Min == (image.Point{}) && rgba.Stride == width*4 {
		return rgba
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst
}
