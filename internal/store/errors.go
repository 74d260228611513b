package store

import "fmt"

// MissingAncestorError reports an attempt to attach an entity to an owner
// that does not exist, e.g. creating a thread cache for an unknown thread.
// It indicates a caller-discipline bug, not a runtime condition to recover
// from.
type MissingAncestorError struct {
	Child    string
	Ancestor LocalID
}

func (e *MissingAncestorError) Error() string {
	return fmt.Sprintf("%s refers to missing ancestor %s", e.Child, e.Ancestor)
}
