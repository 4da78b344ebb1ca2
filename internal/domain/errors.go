package domain

import "fmt"

// PathError reports a fatal failure on the operation's root path. Per-entry
// failures inside a walk are recoverable and never carry this type.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("root path %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// SerializationError reports a corrupt or incompatible saved scan. Fatal
// only for the load call itself.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("scan file %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
