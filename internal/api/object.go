package api

import (
	"bytes"
	"encoding/json"
)

// Object is a loosely typed JSON object. Lookups never fail; absent or
// mistyped fields read as zero values.
type Object map[string]json.RawMessage

// DecodeObject parses body as a JSON object. ok is false when the body is not
// an object; the returned Object is empty but usable in that case.
func DecodeObject(body []byte) (Object, bool) {
	obj := Object{}
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return Object{}, false
	}
	return obj, true
}

// Unwrap returns the object under "data" when present, else o itself.
func (o Object) Unwrap() Object {
	raw, ok := o.Present("data")
	if !ok {
		return o
	}
	inner, isObject := DecodeObject(raw)
	if !isObject {
		return o
	}
	return inner
}

// Present returns the raw value of key if it exists and is not null.
func (o Object) Present(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return trimmed, true
}

// String returns key as a string when it holds a JSON string.
func (o Object) String(key string) (string, bool) {
	raw, ok := o.Present(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Array returns the elements of key when it holds a JSON array.
func (o Object) Array(key string) ([]json.RawMessage, bool) {
	raw, ok := o.Present(key)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

// Map returns key decoded as a generic JSON object.
func (o Object) Map(key string) (map[string]any, bool) {
	raw, ok := o.Present(key)
	if !ok {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
