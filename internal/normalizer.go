package internal

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// ReencodeTarget is the first natively supported image format.
	ReencodeTarget = "image/png"
	plainText      = "text/plain"
	documentType   = "application/pdf"
)

// nativeImageFormats are sent as-is.
var nativeImageFormats = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// reencodedContainers are the containers we can decode and convert to PNG.
// Anything else labelled image/* (heic, heif, unrecognized bytes) passes through.
var reencodedContainers = map[string]bool{
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

var textualApplicationTypes = map[string]bool{
	"application/json":         true,
	"application/xml":          true,
	"application/javascript":   true,
	"application/x-javascript": true,
	"application/ecmascript":   true,
	"application/x-sh":         true,
	"application/yaml":         true,
	"application/x-yaml":       true,
	"application/toml":         true,
	"application/x-toml":       true,
	"application/rtf":          true,
	"application/sql":          true,
	"application/graphql":      true,
	"application/x-tex":        true,
}

// MediaNormalizer makes file contents acceptable to the remote protocol
type MediaNormalizer struct{}

// NewMediaNormalizer creates a new MediaNormalizer
func NewMediaNormalizer() *MediaNormalizer {
	return &MediaNormalizer{}
}

// Normalize returns the bytes and content type to send for a file whose type
// was guessed as guessed. Images in containers other than PNG/JPEG are
// re-encoded to PNG; loosely typed textual formats are relabelled text/plain
// with their bytes untouched.
func (n *MediaNormalizer) Normalize(path string, data []byte, guessed string) ([]byte, string, error) {
	switch ContentCategory(guessed) {
	case "image":
		return n.normalizeImage(path, data, guessed)
	case "application":
		if guessed != documentType && (isTextualApplicationType(guessed) || isTextualContent(data)) {
			LogDebug("Relabelling %s (%s) as %s", path, guessed, plainText)
			return data, plainText, nil
		}
	case "text":
		if guessed != plainText {
			LogDebug("Relabelling %s (%s) as %s", path, guessed, plainText)
			return data, plainText, nil
		}
	}
	return data, guessed, nil
}

func (n *MediaNormalizer) normalizeImage(path string, data []byte, guessed string) ([]byte, string, error) {
	container := mimetype.Detect(data).String()
	if nativeImageFormats[container] {
		return data, container, nil
	}
	if !reencodedContainers[container] {
		return data, guessed, nil
	}

	LogDebug("Got %s image %s, converting to png", container, path)
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &MediaDecodeError{Path: path, Format: container, Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", &MediaDecodeError{Path: path, Format: container, Err: err}
	}
	return buf.Bytes(), ReencodeTarget, nil
}

func isTextualApplicationType(ct string) bool {
	return textualApplicationTypes[ct] || strings.HasSuffix(ct, "+xml") || strings.HasSuffix(ct, "+json")
}

// isTextualContent reports whether the sniffed type descends from text/plain.
func isTextualContent(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is(plainText) {
			return true
		}
	}
	return false
}
