package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "gemini-attach-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// WriteFile writes data to name inside dir and returns the full path
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

// WriteSizedFile writes a file of exactly size bytes of plain text
func WriteSizedFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	return WriteFile(t, dir, name, bytes.Repeat([]byte("a"), int(size)))
}

// sampleImage is a small opaque image with a few distinct pixels
func sampleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(60 * x), G: uint8(80 * y), B: 200, A: 255})
		}
	}
	return img
}

// BMPBytes returns an encoded 4x3 BMP image
func BMPBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, sampleImage()); err != nil {
		t.Fatalf("Failed to encode BMP fixture: %v", err)
	}
	return buf.Bytes()
}

// GIFBytes returns an encoded 4x3 GIF image
func GIFBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, sampleImage(), nil); err != nil {
		t.Fatalf("Failed to encode GIF fixture: %v", err)
	}
	return buf.Bytes()
}
