package core

import (
	"errors"
	"io"
	"io/fs"
	"syscall"

	"github.com/0xRadioAc7iv/biglog-sort/internal/lock"
	"github.com/0xRadioAc7iv/biglog-sort/internal/record"
)

var (
	// ErrLineCountMismatch is returned when two passes over the same file
	// disagree on how many lines it holds.
	ErrLineCountMismatch = errors.New("line count mismatch between passes")

	// ErrInputChanged is returned when a later pass sees a token the keyword
	// pass never recorded.
	ErrInputChanged = errors.New("input changed between passes")

	// ErrKeyOverflow is returned when a key policy runs past the uint32 key space.
	ErrKeyOverflow = errors.New("target key overflows uint32")

	// ErrUnknownPolicy is returned for a key policy name that is not registered.
	ErrUnknownPolicy = errors.New("unknown key policy")
)

// Kind is the coarse failure class of a pipeline error. Every kind is fatal;
// it only decides how the failure is reported.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindIO      Kind = "io"
	KindDecode  Kind = "decode"
)

// Classify maps err to its Kind using sentinel errors and standard library
// error types only.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if errors.Is(err, record.ErrTruncatedKey) ||
		errors.Is(err, record.ErrInvalidText) ||
		errors.Is(err, record.ErrChunkCorrupt) ||
		errors.Is(err, ErrLineCountMismatch) ||
		errors.Is(err, ErrInputChanged) ||
		errors.Is(err, ErrKeyOverflow) {
		return KindDecode
	}

	if errors.Is(err, lock.ErrDirectoryInUse) {
		return KindIO
	}

	var perr *fs.PathError
	if errors.As(err, &perr) {
		return KindIO
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return KindIO
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrShortWrite) {
		return KindIO
	}

	return KindUnknown
}
