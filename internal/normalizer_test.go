package internal

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/iksnae/gemini-attach/testutil"
)

func TestNormalizeTextual(t *testing.T) {
	normalizer := NewMediaNormalizer()
	xmlData := []byte(`<?xml version="1.0"?><note><to>you</to></note>`)

	tests := []struct {
		name    string
		path    string
		data    []byte
		guessed string
		wantCT  string
	}{
		{"xml downgraded", "data.xml", xmlData, "application/xml", "text/plain"},
		{"json downgraded", "data.json", []byte(`{"a":1}`), "application/json", "text/plain"},
		{"html downgraded", "page.html", []byte("<html><body>hi</body></html>"), "text/html", "text/plain"},
		{"markdown downgraded", "README.md", []byte("# Title\n"), "text/markdown", "text/plain"},
		{"plain untouched", "notes.txt", []byte("hello"), "text/plain", "text/plain"},
		{"pdf kept", "paper.pdf", []byte("%PDF-1.4\n"), "application/pdf", "application/pdf"},
		{"unknown text sniffed", "notes", []byte("just some words\n"), OctetStream, "text/plain"},
		{"zip kept", "a.zip", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00\x00\x00\x00\x00"), "application/zip", "application/zip"},
		{"video kept", "clip.mp4", []byte{0, 0, 0, 0x18}, "video/mp4", "video/mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := normalizer.Normalize(tt.path, tt.data, tt.guessed)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if ct != tt.wantCT {
				t.Errorf("Normalize() content type = %v, want %v", ct, tt.wantCT)
			}
			if !bytes.Equal(data, tt.data) {
				t.Error("Normalize() changed the bytes of a non-image file")
			}
		})
	}
}

func TestNormalizeReencodesImages(t *testing.T) {
	normalizer := NewMediaNormalizer()

	tests := []struct {
		name    string
		path    string
		data    []byte
		guessed string
	}{
		{"bmp", "scan.bmp", testutil.BMPBytes(t), "image/bmp"},
		{"gif", "anim.gif", testutil.GIFBytes(t), "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := normalizer.Normalize(tt.path, tt.data, tt.guessed)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if ct != ReencodeTarget {
				t.Errorf("Normalize() content type = %v, want %v", ct, ReencodeTarget)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("re-encoded bytes are not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
				t.Errorf("re-encoded image is %dx%d, want 4x3", b.Dx(), b.Dy())
			}
		})
	}
}

func TestNormalizeImagePassthrough(t *testing.T) {
	normalizer := NewMediaNormalizer()

	// unrecognized container bytes under an image label are forwarded as-is
	heic := []byte("not really heic data")
	data, ct, err := normalizer.Normalize("photo.heic", heic, "image/heic")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if ct != "image/heic" || !bytes.Equal(data, heic) {
		t.Errorf("Normalize() = (%d bytes, %v), want the heic input unchanged", len(data), ct)
	}

	// a real PNG keeps its bytes
	var buf bytes.Buffer
	if err := png.Encode(&buf, mustDecode(t, testutil.BMPBytes(t))); err != nil {
		t.Fatal(err)
	}
	data, ct, err = normalizer.Normalize("photo.png", buf.Bytes(), "image/png")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if ct != "image/png" || !bytes.Equal(data, buf.Bytes()) {
		t.Errorf("Normalize() altered a PNG")
	}
}

func TestNormalizeDecodeError(t *testing.T) {
	normalizer := NewMediaNormalizer()
	corrupt := []byte("GIF89a\x01\x00garbage that is not a gif")

	_, _, err := normalizer.Normalize("broken.gif", corrupt, "image/gif")
	var decodeErr *MediaDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Normalize() error = %v, want *MediaDecodeError", err)
	}
	if decodeErr.Path != "broken.gif" {
		t.Errorf("MediaDecodeError.Path = %q, want broken.gif", decodeErr.Path)
	}
}

func mustDecode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode fixture: %v", err)
	}
	return img
}
