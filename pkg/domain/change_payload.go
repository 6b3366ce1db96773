package domain

import "encoding/json"

// ChangePayload carries a JSON snapshot of a record on one side of a
// Change. The zero value is "undefined", which is how creates express a
// missing Before and deletes a missing After. Defined-but-empty is a
// distinct state reserved for records that serialize to nothing.
type ChangePayload struct {
	defined bool
	raw     json.RawMessage
}

// UndefinedChangePayload returns the unset payload.
func UndefinedChangePayload() ChangePayload {
	return ChangePayload{}
}

// NewChangePayload wraps raw JSON in a defined payload. The bytes are
// cloned so later mutation of the caller's slice cannot corrupt recorded
// history. A nil slice produces a defined but empty payload.
func NewChangePayload(raw json.RawMessage) ChangePayload {
	p := ChangePayload{defined: true}
	if raw != nil {
		p.raw = cloneRaw(raw)
	}
	return p
}

// NewChangePayloadFromValue marshals value and wraps the result.
func NewChangePayloadFromValue[T any](value T) (ChangePayload, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return ChangePayload{}, err
	}
	return NewChangePayload(raw), nil
}

// Defined reports whether the payload was set at all.
func (p ChangePayload) Defined() bool {
	return p.defined
}

// IsEmpty reports whether the payload holds no bytes. Undefined payloads
// are empty by definition.
func (p ChangePayload) IsEmpty() bool {
	return !p.defined || len(p.raw) == 0
}

// Raw returns a clone of the snapshot bytes, or nil when there are none.
func (p ChangePayload) Raw() json.RawMessage {
	if p.IsEmpty() {
		return nil
	}
	return cloneRaw(p.raw)
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	cloned := make(json.RawMessage, len(raw))
	copy(cloned, raw)
	return cloned
}
