package internal

// Part is the request-part wire shape: exactly one of InlineData and FileData is set
type Part struct {
	InlineData *Blob     `json:"inline_data,omitempty" yaml:"inline_data,omitempty"`
	FileData   *FileData `json:"file_data,omitempty" yaml:"file_data,omitempty"`
}

// Blob is base64 data embedded in a request
type Blob struct {
	MimeType string `json:"mime_type" yaml:"mime_type"`
	Data     string `json:"data" yaml:"data"`
}

// FileData references an uploaded remote object
type FileData struct {
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	FileURI  string `json:"file_uri" yaml:"file_uri"`
}

// ConversionResult is either an InlinePart or an UploadedFile
type ConversionResult interface {
	Part() Part
	isConversionResult()
}

// InlinePart is a payload ready for direct embedding
type InlinePart struct {
	MimeType string
	Data     string // base64, standard encoding
}

// Part returns the inline_data request part
func (p InlinePart) Part() Part {
	return Part{InlineData: &Blob{MimeType: p.MimeType, Data: p.Data}}
}

func (InlinePart) isConversionResult() {}

// UploadedFile references an active remote object
type UploadedFile struct {
	Handle FileHandle
	Ref    RemoteObjectRef
}

// Part returns the file_data request part
func (f UploadedFile) Part() Part {
	return Part{FileData: &FileData{MimeType: f.Handle.MimeType, FileURI: f.Handle.URI}}
}

func (UploadedFile) isConversionResult() {}
