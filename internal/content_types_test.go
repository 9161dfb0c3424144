package internal

import (
	"errors"
	"testing"
)

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"photo.png", "image/png"},
		{"photo.JPG", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"scan.bmp", "image/bmp"},
		{"clip.mp4", "video/mp4"},
		{"song.mp3", "audio/mp3"},
		{"notes.txt", "text/plain"},
		{"README.md", "text/markdown"},
		{"data.xml", "application/xml"},
		{"data.json", "application/json"},
		{"archive.zip", "application/zip"},
		{"paper.pdf", "application/pdf"},
		{"Makefile", OctetStream},
		{"blob.unknownext", OctetStream},
	}

	for _, tt := range tests {
		if got := GuessContentType(tt.path); got != tt.want {
			t.Errorf("GuessContentType(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		ct      string
		wantErr bool
	}{
		{"image/png", false},
		{"image/heic", false},
		{"text/plain", false},
		{"application/pdf", false},
		{"application/json", false},
		{"audio/flac", false},
		{"application/zip", true},
		{"image/gif", true},
		{"image/bmp", true},
		{OctetStream, true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateContentType(tt.ct)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateContentType(%q) error = %v, wantErr %v", tt.ct, err, tt.wantErr)
			continue
		}
		if err != nil {
			var unsupported *UnsupportedTypeError
			if !errors.As(err, &unsupported) {
				t.Errorf("ValidateContentType(%q) error type = %T, want *UnsupportedTypeError", tt.ct, err)
			} else if len(unsupported.Supported) != len(SupportedContentTypes()) {
				t.Errorf("UnsupportedTypeError.Supported has %d entries, want %d", len(unsupported.Supported), len(SupportedContentTypes()))
			}
		}
	}
}

func TestSupportedContentTypesIsACopy(t *testing.T) {
	types := SupportedContentTypes()
	types[0] = "mutated/type"
	if IsSupportedContentType("mutated/type") {
		t.Error("mutating SupportedContentTypes() result changed the allow-list")
	}
}

func TestContentCategory(t *testing.T) {
	tests := map[string]string{
		"image/png":       "image",
		"application/pdf": "application",
		"text":            "text",
		"":                "",
	}
	for ct, want := range tests {
		if got := ContentCategory(ct); got != want {
			t.Errorf("ContentCategory(%q) = %q, want %q", ct, got, want)
		}
	}
}
