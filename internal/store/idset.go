package store

import "slices"

// IDSet is the vocabulary every relationship list is written in: Link,
// Unlink and Contains, all idempotent. Lists stay small (UI sizes), so
// linear scans are fine.
type IDSet []LocalID

// Contains reports membership.
func (s IDSet) Contains(id LocalID) bool {
	return slices.Contains(s, id)
}

// Link appends id if absent, preserving existing order.
func (s IDSet) Link(id LocalID) IDSet {
	if s.Contains(id) {
		return s
	}
	return append(s, id)
}

// LinkOrdered inserts id before the first member with a greater numeric id,
// or appends if none, keeping the set ascending without a full re-sort.
// No-op if already present.
func (s IDSet) LinkOrdered(id LocalID) IDSet {
	if s.Contains(id) {
		return s
	}
	at := len(s)
	for i, other := range s {
		if other.ID > id.ID {
			at = i
			break
		}
	}
	return slices.Insert(s, at, id)
}

// IndexOf returns the position of id, or -1 if absent.
func (s IDSet) IndexOf(id LocalID) int {
	return slices.Index(s, id)
}

// Unlink removes id if present.
func (s IDSet) Unlink(id LocalID) IDSet {
	i := slices.Index(s, id)
	if i < 0 {
		return s
	}
	return slices.Delete(s, i, i+1)
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	return slices.Clone(s)
}
