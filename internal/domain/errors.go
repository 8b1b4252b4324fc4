package domain

import "errors"

var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyActive   = errors.New("a task is already active for this resource")
	ErrNotActive       = errors.New("task is not active")
	ErrWrongSourceKind = errors.New("only recorded videos can be trimmed")
	ErrInvalidRange    = errors.New("invalid trim range")
	ErrFileMissing     = errors.New("backing file not found on disk")
	ErrInvalidFormat   = errors.New("unsupported audio format")
	ErrInvalidBitrate  = errors.New("bitrate must look like 128k, 192k or 320k")
	ErrDisallowedType  = errors.New("file type not allowed")
	ErrTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrBadChunkIndex   = errors.New("chunk index out of range")
	ErrWrongState      = errors.New("upload session is not accepting chunks")
	ErrIncomplete      = errors.New("upload is missing chunks")
	ErrMergeFailed     = errors.New("failed to merge uploaded chunks")
)

// maxErrorLength bounds diagnostic text stored on a task row.
const maxErrorLength = 500

// TruncateError keeps the last maxErrorLength bytes of a diagnostic string.
// External tools print the useful part of their output last, so the tail
// is kept rather than the head.
func TruncateError(msg string) string {
	if len(msg) <= maxErrorLength {
		return msg
	}
	return msg[len(msg)-maxErrorLength:]
}
