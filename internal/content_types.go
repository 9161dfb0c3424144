package internal

import (
	"mime"
	"path/filepath"
	"slices"
	"strings"
)

// OctetStream is the fallback content type for unknown extensions.
const OctetStream = "application/octet-stream"

// supportedContentTypes is the set of MIME strings the remote protocol accepts.
var supportedContentTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/heic",
	"image/heif",
	"video/mp4",
	"video/mpeg",
	"video/quicktime",
	"video/avi",
	"video/x-flv",
	"video/mpg",
	"video/webm",
	"video/wmv",
	"video/3gpp",
	"audio/wav",
	"audio/mp3",
	"audio/aiff",
	"audio/aac",
	"audio/ogg",
	"audio/flac",
	"text/plain",
	"text/html",
	"text/css",
	"text/javascript",
	"text/typescript",
	"application/x-javascript",
	"application/json",
	"text/xml",
	"application/rtf",
	"text/rtf",
	"application/pdf",
}

// extensionTypes pins extensions to the spellings the allow-list uses so the
// guess does not depend on the host's mime tables.
var extensionTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".ico":  "image/x-icon",
	".svg":  "image/svg+xml",

	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpg",
	".mov":  "video/quicktime",
	".avi":  "video/avi",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".wmv":  "video/wmv",
	".3gp":  "video/3gpp",

	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",

	".txt":  "text/plain",
	".log":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".ts":   "text/typescript",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".go":   "text/x-go",
	".py":   "text/x-python",
	".rs":   "text/x-rust",
	".c":    "text/x-c",
	".h":    "text/x-c",
	".java": "text/x-java",
	".sh":   "application/x-sh",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".sql":  "application/sql",
	".rtf":  "application/rtf",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
	".exe":  "application/vnd.microsoft.portable-executable",
}

// SupportedContentTypes returns a copy of the allow-list.
func SupportedContentTypes() []string {
	return slices.Clone(supportedContentTypes)
}

// IsSupportedContentType reports whether ct is on the allow-list.
func IsSupportedContentType(ct string) bool {
	return slices.Contains(supportedContentTypes, ct)
}

// ValidateContentType rejects content types outside the allow-list.
func ValidateContentType(ct string) error {
	if !IsSupportedContentType(ct) {
		return &UnsupportedTypeError{ContentType: ct, Supported: SupportedContentTypes()}
	}
	return nil
}

// GuessContentType guesses a content type from the path's extension.
// Unknown extensions fall back to the host mime table, then to octet-stream.
func GuessContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return OctetStream
	}
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	return OctetStream
}

// ContentCategory returns the top-level type ("image", "video", ...).
func ContentCategory(ct string) string {
	category, _, _ := strings.Cut(ct, "/")
	return category
}
