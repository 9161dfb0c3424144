package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FileState is the processing state of a remote object
type FileState string

const (
	FileStateUnspecified FileState = "STATE_UNSPECIFIED"
	FileStateProcessing  FileState = "PROCESSING"
	FileStateActive      FileState = "ACTIVE"
	FileStateFailed      FileState = "FAILED"
)

// RemoteObjectRef identifies a previously uploaded object on the remote service.
// Values are immutable once cached; a newer upload replaces the whole value.
type RemoteObjectRef struct {
	Name        string     `json:"name" yaml:"name"`
	DisplayName string     `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	URI         string     `json:"uri,omitempty" yaml:"uri,omitempty"`
	MimeType    string     `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	State       FileState  `json:"state" yaml:"state"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// ExpiredAt reports whether the reference has expired at now. References
// without an expiration never expire locally.
func (r RemoteObjectRef) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// StateKind discriminates AttachmentState
type StateKind int

const (
	StateLocal StateKind = iota
	StateUploading
	StateUploaded
	StateFailed
)

func (k StateKind) String() string {
	switch k {
	case StateLocal:
		return "local"
	case StateUploading:
		return "uploading"
	case StateUploaded:
		return "uploaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// AttachmentState is the lifecycle state of an attachment. Ref is only set
// for Uploaded (nil when the attachment became an inline payload), Reason
// only for Failed.
type AttachmentState struct {
	Kind   StateKind        `json:"kind"`
	Ref    *RemoteObjectRef `json:"ref,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

// LocalState is the initial state
func LocalState() AttachmentState {
	return AttachmentState{Kind: StateLocal}
}

// UploadingState marks a conversion in flight
func UploadingState() AttachmentState {
	return AttachmentState{Kind: StateUploading}
}

// UploadedState marks a successful conversion. ref is nil for inline payloads.
func UploadedState(ref *RemoteObjectRef) AttachmentState {
	return AttachmentState{Kind: StateUploaded, Ref: ref}
}

// FailedState marks a failed conversion
func FailedState(reason string) AttachmentState {
	return AttachmentState{Kind: StateFailed, Reason: reason}
}

// IsTerminal reports whether no further transition is allowed
func (s AttachmentState) IsTerminal() bool {
	return s.Kind == StateUploaded || s.Kind == StateFailed
}

// CanTransition reports whether moving from s to next follows
// Local → Uploading → {Uploaded, Failed}.
func (s AttachmentState) CanTransition(next AttachmentState) bool {
	switch s.Kind {
	case StateLocal:
		return next.Kind == StateUploading
	case StateUploading:
		return next.Kind == StateUploaded || next.Kind == StateFailed
	default:
		return false
	}
}

func (s AttachmentState) String() string {
	switch s.Kind {
	case StateUploaded:
		if s.Ref != nil {
			return "uploaded(" + s.Ref.Name + ")"
		}
		return "uploaded(inline)"
	case StateFailed:
		return "failed: " + s.Reason
	default:
		return s.Kind.String()
	}
}

// AttachmentID is the stable identity of an attachment on a board
type AttachmentID string

// Attachment is a user-visible reference to a local file intended for a
// conversation turn
type Attachment struct {
	ID    AttachmentID    `json:"id"`
	Path  string          `json:"path"`
	Mime  string          `json:"mime"`
	State AttachmentState `json:"state"`
}

// NewAttachment creates a Local attachment for path with a guessed mime type
func NewAttachment(path string) Attachment {
	return Attachment{
		ID:    AttachmentID(uuid.NewString()),
		Path:  path,
		Mime:  GuessContentType(path),
		State: LocalState(),
	}
}
