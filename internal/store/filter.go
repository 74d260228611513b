package store

import "encoding/json"

// Condition is one (field, operator, value) predicate term. It marshals as
// the backend's triplet form: ["body", "ilike", "invoice"].
type Condition struct {
	Field string
	Op    string
	Value any
}

// MarshalJSON renders the condition as a triplet array.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{c.Field, c.Op, c.Value})
}

// UnmarshalJSON accepts the triplet array form.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var triplet [3]any
	if err := json.Unmarshal(data, &triplet); err != nil {
		return err
	}
	c.Field, _ = triplet[0].(string)
	c.Op, _ = triplet[1].(string)
	c.Value = triplet[2]
	return nil
}

// Filter is a message search predicate, a conjunction of conditions. The
// empty filter matches everything; every thread owns at least the
// empty-filter cache once created.
type Filter []Condition

// EmptyFilterKey is the serialized form of the empty filter.
const EmptyFilterKey = "[]"

// Key returns the canonical serialized form of the filter, used to address
// the thread cache scoped to it.
func (f Filter) Key() string {
	if len(f) == 0 {
		return EmptyFilterKey
	}
	b, err := json.Marshal(f)
	if err != nil {
		// Conditions hold only JSON-representable values by construction.
		return EmptyFilterKey
	}
	return string(b)
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool { return len(f) == 0 }
