package object

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingObject indicates the id is neither a loose object nor present
	// in any pack index.
	ErrMissingObject = errors.New("object not found")
	// ErrCorruptObject covers inflate failures, malformed envelopes and length
	// mismatches.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrUnknownObjectType indicates an envelope type other than blob, tree
	// or commit. It matches ErrCorruptObject under errors.Is.
	ErrUnknownObjectType = fmt.Errorf("%w: unknown object type", ErrCorruptObject)
	// ErrMalformedTreeEntry indicates a truncated or unparsable tree record.
	// It matches ErrCorruptObject under errors.Is.
	ErrMalformedTreeEntry = fmt.Errorf("%w: malformed tree entry", ErrCorruptObject)
	// ErrMalformedStamp indicates an author or committer line that does not
	// match "name <email> timestamp tz".
	ErrMalformedStamp = errors.New("malformed signature stamp")
	// ErrTypeMismatch is returned by the typed readers when the stored object
	// has a different type than requested.
	ErrTypeMismatch = errors.New("object type mismatch")
	// ErrStoreClosed is returned by reads on a Store after Close.
	ErrStoreClosed = errors.New("object store closed")
)

// LookupError annotates a failed lookup with the id that was requested.
type LookupError struct {
	Hash Hash
	Err  error
}

func (e *LookupError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("object read %s: %v", e.Hash, e.Err)
}

func (e *LookupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func lookupErr(h Hash, format string, args ...any) error {
	return &LookupError{Hash: h, Err: fmt.Errorf(format, args...)}
}
