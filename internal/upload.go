package internal

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// PollInterval is the fixed wait between status polls
	PollInterval = 2 * time.Second
	// UploadTimeout bounds the wait for a remote object to become active,
	// measured from submission
	UploadTimeout = 300 * time.Second

	fallbackDisplayName = "uploaded_file"
)

var errStillProcessing = errors.New("file still processing")

// UploadCoordinator submits files to the remote service, waits for them to
// become active and records them in the cache
type UploadCoordinator struct {
	cache    *RemoteObjectCache
	observer Observer
	now      func() time.Time
	newTimer func() backoff.Timer
	interval time.Duration
	timeout  time.Duration
}

// UploadOption configures an UploadCoordinator
type UploadOption func(*UploadCoordinator)

// WithUploadClock replaces the wall clock and the poll timer. Tests use a
// timer that advances now instead of sleeping.
func WithUploadClock(now func() time.Time, newTimer func() backoff.Timer) UploadOption {
	return func(u *UploadCoordinator) {
		u.now = now
		u.newTimer = newTimer
	}
}

// WithUploadObserver records upload metrics
func WithUploadObserver(o Observer) UploadOption {
	return func(u *UploadCoordinator) {
		if o != nil {
			u.observer = o
		}
	}
}

// NewUploadCoordinator creates a coordinator writing successful uploads to cache
func NewUploadCoordinator(cache *RemoteObjectCache, opts ...UploadOption) *UploadCoordinator {
	u := &UploadCoordinator{
		cache:    cache,
		observer: nopObserver{},
		now:      time.Now,
		interval: PollInterval,
		timeout:  UploadTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload submits data for path and polls until the remote object is active.
// Transport errors while polling are retried inside the same time budget;
// only the submission itself fails fast.
func (u *UploadCoordinator) Upload(ctx context.Context, client RemoteClient, path string, data []byte, contentType string) (RemoteObjectRef, error) {
	start := u.now()
	pending, err := client.CreateAndUpload(ctx, data, displayName(path), contentType)
	if err != nil {
		u.observer.RecordUpload(u.now().Sub(start), 0, err)
		return RemoteObjectRef{}, &UploadSubmitError{Path: path, Err: err}
	}
	LogInfo("File uploaded: %s, waiting for processing...", pending.Name)

	var (
		polls   int
		lastErr error
		active  RemoteObjectRef
	)
	poll := func() error {
		polls++
		fresh, err := client.FetchByName(ctx, pending.Name)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			lastErr = err
			return err
		}
		lastErr = nil
		switch fresh.State {
		case FileStateActive:
			active = fresh
			return nil
		case FileStateFailed:
			return backoff.Permanent(&RemoteProcessingFailedError{Name: pending.Name, Reason: fresh.Error})
		default:
			// PROCESSING, STATE_UNSPECIFIED, empty and unknown states all wait
			return errStillProcessing
		}
	}
	notify := func(err error, next time.Duration) {
		if errors.Is(err, errStillProcessing) {
			LogDebug("File %s still processing, waiting %s...", pending.Name, next)
			return
		}
		LogWarn("Status check for %s failed, retrying in %s: %v", pending.Name, next, err)
	}

	schedule := &pollSchedule{interval: u.interval, timeout: u.timeout, start: start, now: u.now}
	var timer backoff.Timer
	if u.newTimer != nil {
		timer = u.newTimer()
	}
	err = backoff.RetryNotifyWithTimer(poll, backoff.WithContext(schedule, ctx), notify, timer)
	elapsed := u.now().Sub(start)
	if err != nil {
		var failed *RemoteProcessingFailedError
		switch {
		case errors.As(err, &failed):
		case ctx.Err() != nil:
			err = ctx.Err()
		default:
			err = &UploadTimeoutError{Name: pending.Name, Elapsed: elapsed, Polls: polls, LastErr: lastErr}
		}
		u.observer.RecordUpload(elapsed, polls, err)
		return RemoteObjectRef{}, err
	}

	active = mergeRef(active, pending)
	if active.MimeType == "" {
		active.MimeType = contentType
	}
	LogInfo("File %s is ACTIVE and ready", active.Name)
	u.observer.RecordUpload(elapsed, polls, nil)

	if err := u.cache.Insert(path, active); err != nil {
		LogWarn("Failed to cache %s: %v", path, err)
	}
	return active, nil
}

// pollSchedule waits a fixed interval between polls and stops once the next
// poll would land at or past the timeout. The budget is anchored at
// submission, so Reset does not move it.
type pollSchedule struct {
	interval time.Duration
	timeout  time.Duration
	start    time.Time
	now      func() time.Time
}

func (p *pollSchedule) NextBackOff() time.Duration {
	if p.now().Sub(p.start)+p.interval >= p.timeout {
		return backoff.Stop
	}
	return p.interval
}

func (p *pollSchedule) Reset() {}

// mergeRef fills fields the status response left empty from the submission response
func mergeRef(fresh, pending RemoteObjectRef) RemoteObjectRef {
	if fresh.Name == "" {
		fresh.Name = pending.Name
	}
	if fresh.URI == "" {
		fresh.URI = pending.URI
	}
	if fresh.MimeType == "" {
		fresh.MimeType = pending.MimeType
	}
	if fresh.DisplayName == "" {
		fresh.DisplayName = pending.DisplayName
	}
	if fresh.ExpiresAt == nil {
		fresh.ExpiresAt = pending.ExpiresAt
	}
	return fresh
}

func displayName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return fallbackDisplayName
	}
	return base
}
