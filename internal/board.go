package internal

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency bounds parallel conversions on a board
const DefaultConcurrency = 4

// Outcome is the state of one attachment together with its conversion result
type Outcome struct {
	Attachment Attachment
	Result     ConversionResult
	Err        error
}

type boardEntry struct {
	att    Attachment
	result ConversionResult
	err    error
}

// Board is the ordered list of pending attachments of a compose box.
// Conversions run on their own goroutines and report back by id, so an
// attachment removed mid-flight simply drops its result.
type Board struct {
	mu    sync.Mutex
	order []AttachmentID
	items map[AttachmentID]*boardEntry
	conv  Converter
	sem   *semaphore.Weighted
	wg    sync.WaitGroup
}

// NewBoard creates an empty board converting with conv, running at most
// concurrency conversions at once
func NewBoard(conv Converter, concurrency int) *Board {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Board{
		items: make(map[AttachmentID]*boardEntry),
		conv:  conv,
		sem:   semaphore.NewWeighted(int64(concurrency)),
	}
}

// Add appends a Local attachment for path
func (b *Board) Add(path string) Attachment {
	att := NewAttachment(path)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = append(b.order, att.ID)
	b.items[att.ID] = &boardEntry{att: att}
	return att
}

// Remove drops an attachment. An in-flight conversion keeps running and its
// result is discarded.
func (b *Board) Remove(id AttachmentID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(id)
}

func (b *Board) removeLocked(id AttachmentID) bool {
	if _, ok := b.items[id]; !ok {
		return false
	}
	delete(b.items, id)
	for i, other := range b.order {
		if other == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Retain keeps only the attachments for which keep returns true
func (b *Board) Retain(keep func(Attachment) bool) {
	for _, att := range b.Snapshot() {
		if !keep(att) {
			b.Remove(att.ID)
		}
	}
}

// Get returns a copy of the attachment with id
func (b *Board) Get(id AttachmentID) (Attachment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.items[id]
	if !ok {
		return Attachment{}, false
	}
	return copyAttachment(entry.att), true
}

// Snapshot returns copies of every attachment in insertion order
func (b *Board) Snapshot() []Attachment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Attachment, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, copyAttachment(b.items[id].att))
	}
	return out
}

// Result returns the outcome recorded for id. It is the zero Outcome with
// a nil Result while the attachment is Local or Uploading.
func (b *Board) Result(id AttachmentID) (Outcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.items[id]
	if !ok {
		return Outcome{}, false
	}
	return Outcome{Attachment: copyAttachment(entry.att), Result: entry.result, Err: entry.err}, true
}

// Outcomes returns every attachment with its result or error, in order
func (b *Board) Outcomes() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Outcome, 0, len(b.order))
	for _, id := range b.order {
		entry := b.items[id]
		out = append(out, Outcome{Attachment: copyAttachment(entry.att), Result: entry.result, Err: entry.err})
	}
	return out
}

// Take removes the Uploaded attachments and returns them, as happens when
// they are consumed into a sent message
func (b *Board) Take() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	var taken []Outcome
	for _, id := range append([]AttachmentID(nil), b.order...) {
		entry := b.items[id]
		if entry.att.State.Kind != StateUploaded {
			continue
		}
		taken = append(taken, Outcome{Attachment: copyAttachment(entry.att), Result: entry.result})
		b.removeLocked(id)
	}
	return taken
}

// Settled reports whether no attachment is Uploading
func (b *Board) Settled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range b.items {
		if entry.att.State.Kind == StateUploading {
			return false
		}
	}
	return true
}

// Dispatch starts converting a Local attachment and returns immediately.
// The attachment moves to Uploading now and to Uploaded or Failed when the
// conversion finishes.
func (b *Board) Dispatch(ctx context.Context, id AttachmentID, upload bool) error {
	b.mu.Lock()
	entry, ok := b.items[id]
	if !ok {
		b.mu.Unlock()
		return ErrAttachmentNotFound
	}
	if entry.att.State.Kind == StateUploading {
		b.mu.Unlock()
		return ErrConversionInFlight
	}
	if entry.att.State.IsTerminal() || !entry.att.State.CanTransition(UploadingState()) {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, entry.att.Path, entry.att.State.Kind)
	}
	entry.att.State = UploadingState()
	path := entry.att.Path
	b.wg.Add(1)
	b.mu.Unlock()

	go b.run(ctx, id, path, upload)
	return nil
}

// Wait blocks until every dispatched conversion has delivered its outcome
func (b *Board) Wait() {
	b.wg.Wait()
}

func (b *Board) run(ctx context.Context, id AttachmentID, path string, upload bool) {
	defer b.wg.Done()
	var (
		result ConversionResult
		err    error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion of %s panicked: %v", path, r)
			result = nil
		}
		b.deliver(id, result, err)
	}()

	if err = b.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer b.sem.Release(1)
	result, err = b.conv.Convert(ctx, path, upload)
}

// deliver records an outcome if the attachment is still on the board
func (b *Board) deliver(id AttachmentID, result ConversionResult, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.items[id]
	if !ok {
		LogDebug("Discarding conversion result for removed attachment %s", id)
		return
	}

	next := FailedState("")
	if err != nil {
		next.Reason = err.Error()
	} else if file, isFile := result.(UploadedFile); isFile {
		ref := file.Ref
		next = UploadedState(&ref)
	} else {
		next = UploadedState(nil)
	}
	if !entry.att.State.CanTransition(next) {
		LogWarn("Ignoring %s transition for %s in state %s", next.Kind, entry.att.Path, entry.att.State.Kind)
		return
	}
	if err != nil {
		LogError("Failed to convert %s: %v", entry.att.Path, err)
	}
	entry.att.State = next
	entry.result = result
	entry.err = err
}

func copyAttachment(att Attachment) Attachment {
	if att.State.Ref != nil {
		ref := *att.State.Ref
		att.State.Ref = &ref
	}
	return att
}
