package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	// ErrConversionInFlight is returned when a conversion is dispatched for an
	// attachment that is already Uploading.
	ErrConversionInFlight = errors.New("conversion already in flight")
	// ErrAttachmentNotFound is returned for ids that are not on the board.
	ErrAttachmentNotFound = errors.New("attachment not found")
	// ErrInvalidTransition is returned when a state change would move backward.
	ErrInvalidTransition = errors.New("invalid attachment state transition")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("no API key configured (set GEMINI_API_KEY or api_key)")
)

// PayloadTooLargeError is returned when a file exceeds the inline ceiling and
// upload mode is off
type PayloadTooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("file %s is too large for inline transmission (%s > %s limit); enable upload mode",
		e.Path, humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// MediaDecodeError represents a failed image decode or re-encode
type MediaDecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *MediaDecodeError) Error() string {
	return fmt.Sprintf("media decode error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *MediaDecodeError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError is returned when the final content type is not accepted
// by the remote protocol
type UnsupportedTypeError struct {
	ContentType string
	Supported   []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported MIME type: %s (supported: %s)", e.ContentType, strings.Join(e.Supported, ", "))
}

// UploadSubmitError represents a transport or service failure on the initial
// submission
type UploadSubmitError struct {
	Path string
	Err  error
}

func (e *UploadSubmitError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.Path, e.Err)
}

func (e *UploadSubmitError) Unwrap() error {
	return e.Err
}

// RemoteProcessingFailedError is returned when the remote service reports the
// object as failed after submission
type RemoteProcessingFailedError struct {
	Name   string
	Reason string
}

func (e *RemoteProcessingFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("file %s: processing failed remotely", e.Name)
	}
	return fmt.Sprintf("file %s: processing failed remotely: %s", e.Name, e.Reason)
}

// UploadTimeoutError is returned when the remote object does not become active
// within the polling ceiling
type UploadTimeoutError struct {
	Name    string
	Elapsed time.Duration
	Polls   int
	LastErr error
}

func (e *UploadTimeoutError) Error() string {
	msg := fmt.Sprintf("timeout waiting for file %s to become ACTIVE (%s, %d polls)", e.Name, e.Elapsed, e.Polls)
	if e.LastErr != nil {
		msg += fmt.Sprintf(": last poll error: %v", e.LastErr)
	}
	return msg
}

func (e *UploadTimeoutError) Unwrap() error {
	return e.LastErr
}

// CacheUnavailableError is internal and non-fatal: the caller falls through
// to a fresh upload
type CacheUnavailableError struct {
	Op  string // "lookup", "insert", "purge"
	Err error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("remote object cache unavailable [%s]: %v", e.Op, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing local files or the ref store
type StorageError struct {
	Path string
	Op   string // "stat", "read", "open", "query", "write"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the remote service
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote API error: %s", e.Status)
	}
	return fmt.Sprintf("remote API error: %s: %s", e.Status, e.Message)
}
