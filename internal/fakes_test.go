package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeClient is a scripted RemoteClient. Each FetchByName call consumes the
// next entry of states (or fetchErrs); the last state repeats.
type fakeClient struct {
	mu sync.Mutex

	submitErr error
	states    []FileState
	fetchErrs []error
	failMsg   string
	expiresAt *time.Time

	submits      int
	fetches      int
	handles      int
	displayNames []string
	contentTypes []string
	uploaded     [][]byte
}

func (f *fakeClient) CreateAndUpload(ctx context.Context, data []byte, displayName, contentType string) (RemoteObjectRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.displayNames = append(f.displayNames, displayName)
	f.contentTypes = append(f.contentTypes, contentType)
	f.uploaded = append(f.uploaded, data)
	if f.submitErr != nil {
		return RemoteObjectRef{}, f.submitErr
	}
	name := fmt.Sprintf("files/test-%d", f.submits)
	return RemoteObjectRef{
		Name:        name,
		DisplayName: displayName,
		URI:         "https://example.test/v1beta/" + name,
		MimeType:    contentType,
		SizeBytes:   int64(len(data)),
		State:       FileStateProcessing,
		ExpiresAt:   f.expiresAt,
	}, nil
}

func (f *fakeClient) FetchByName(ctx context.Context, name string) (RemoteObjectRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.fetches
	f.fetches++
	if i < len(f.fetchErrs) && f.fetchErrs[i] != nil {
		return RemoteObjectRef{}, f.fetchErrs[i]
	}
	state := FileStateActive
	if len(f.states) > 0 {
		state = f.states[min(i, len(f.states)-1)]
	}
	ref := RemoteObjectRef{Name: name, State: state}
	if state == FileStateActive {
		ref.URI = "https://example.test/v1beta/" + name
	}
	if state == FileStateFailed {
		ref.Error = f.failMsg
	}
	return ref, nil
}

func (f *fakeClient) HandleForCachedRef(ref RemoteObjectRef) FileHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles++
	return HandleFromRef(ref)
}

func (f *fakeClient) counts() (submits, fetches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits, f.fetches
}

// recordingObserver counts observer calls
type recordingObserver struct {
	mu          sync.Mutex
	conversions []string
	lookups     []string
	uploads     int
	polls       int
	inline      int
}

func (o *recordingObserver) RecordConversion(mode string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conversions = append(o.conversions, mode+":"+outcomeOf(err))
}

func (o *recordingObserver) RecordCacheLookup(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups = append(o.lookups, result)
}

func (o *recordingObserver) RecordUpload(_ time.Duration, polls int, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploads++
	o.polls += polls
}

func (o *recordingObserver) RecordInline(size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inline += size
}

// failingStore is a RefStore whose every call fails
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) LoadRef(string) (RemoteObjectRef, bool, error) {
	return RemoteObjectRef{}, false, errStoreDown
}

func (failingStore) SaveRef(string, RemoteObjectRef, time.Time) error {
	return errStoreDown
}

func (failingStore) ListRefs() ([]CachedRef, error) {
	return nil, errStoreDown
}

func (failingStore) DeleteAll() error {
	return errStoreDown
}

// panickingStore panics on load
type panickingStore struct{ failingStore }

func (panickingStore) LoadRef(string) (RemoteObjectRef, bool, error) {
	panic("corrupted state")
}
