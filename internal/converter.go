package internal

import (
	"context"
	"encoding/base64"
	"os"
	"time"
)

// MaxInlineSize is the largest file sent inline (20 MiB)
const MaxInlineSize int64 = 20 * 1024 * 1024

const (
	modeInline = "inline"
	modeUpload = "upload"
)

// Converter turns a local path into a request-ready result
type Converter interface {
	Convert(ctx context.Context, path string, upload bool) (ConversionResult, error)
}

// AttachmentConverter combines the normalizer, validator, cache and uploader
type AttachmentConverter struct {
	client     RemoteClient
	cache      *RemoteObjectCache
	uploader   *UploadCoordinator
	normalizer *MediaNormalizer
	observer   Observer
}

// NewAttachmentConverter creates a converter. uploader may be nil, in which
// case one writing to cache is created.
func NewAttachmentConverter(client RemoteClient, cache *RemoteObjectCache, uploader *UploadCoordinator, observer Observer) *AttachmentConverter {
	if observer == nil {
		observer = nopObserver{}
	}
	if uploader == nil {
		uploader = NewUploadCoordinator(cache, WithUploadObserver(observer))
	}
	return &AttachmentConverter{
		client:     client,
		cache:      cache,
		uploader:   uploader,
		normalizer: NewMediaNormalizer(),
		observer:   observer,
	}
}

// Convert turns path into an inline payload or, when upload is set, a handle
// to an active remote object. A cached, unexpired upload of the same path is
// reused without reading the file or touching the network.
func (c *AttachmentConverter) Convert(ctx context.Context, path string, upload bool) (ConversionResult, error) {
	mode := modeInline
	if upload {
		mode = modeUpload
	}
	start := time.Now()
	result, err := c.convert(ctx, path, upload)
	c.observer.RecordConversion(mode, time.Since(start), err)
	return result, err
}

func (c *AttachmentConverter) convert(ctx context.Context, path string, upload bool) (ConversionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "stat", Err: err}
	}
	if info.Size() > MaxInlineSize && !upload {
		return nil, &PayloadTooLargeError{Path: path, Size: info.Size(), Limit: MaxInlineSize}
	}

	if upload {
		if result, ok := c.cached(path); ok {
			return result, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	guessed := GuessContentType(path)
	finalBytes, contentType, err := c.normalizer.Normalize(path, data, guessed)
	if err != nil {
		return nil, err
	}
	LogInfo("Processing file: %s, MIME type: %s", path, contentType)

	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	if upload {
		LogInfo("Uploading %s...", path)
		ref, err := c.uploader.Upload(ctx, c.client, path, finalBytes, contentType)
		if err != nil {
			return nil, err
		}
		return UploadedFile{Handle: c.client.HandleForCachedRef(ref), Ref: ref}, nil
	}

	encoded := base64.StdEncoding.EncodeToString(finalBytes)
	LogDebug("Converted file to %d bytes of base64 with mime type %s", len(encoded), contentType)
	c.observer.RecordInline(len(finalBytes))
	return InlinePart{MimeType: contentType, Data: encoded}, nil
}

func (c *AttachmentConverter) cached(path string) (ConversionResult, bool) {
	ref, ok, err := c.cache.Lookup(path)
	switch {
	case err != nil:
		LogWarn("Cache unavailable for %s, uploading again: %v", path, err)
		c.observer.RecordCacheLookup("unavailable")
		return nil, false
	case !ok:
		c.observer.RecordCacheLookup("miss")
		return nil, false
	}
	LogInfo("Cache hit for %s", path)
	c.observer.RecordCacheLookup("hit")
	return UploadedFile{Handle: c.client.HandleForCachedRef(ref), Ref: ref}, true
}
