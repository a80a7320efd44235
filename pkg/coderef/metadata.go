package coderef

import (
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the closed set of metadata value types.
type ValueKind int

const (
	// ValueString is a plain string value.
	ValueString ValueKind = iota
	// ValueBool is a boolean flag.
	ValueBool
	// ValueList is an ordered sequence of strings.
	ValueList
)

// MetaValue is a metadata value: a string, a boolean, or a list of strings.
// The zero value is the empty string.
type MetaValue struct {
	kind ValueKind
	str  string
	b    bool
	list []string
}

// String constructs a string-valued MetaValue.
func String(s string) MetaValue { return MetaValue{kind: ValueString, str: s} }

// Bool constructs a boolean-valued MetaValue.
func Bool(b bool) MetaValue { return MetaValue{kind: ValueBool, b: b} }

// Strings constructs a list-valued MetaValue.
func Strings(vs ...string) MetaValue { return MetaValue{kind: ValueList, list: vs} }

// Kind returns the value's discriminator.
func (v MetaValue) Kind() ValueKind { return v.kind }

// Str returns the string payload (empty unless Kind is ValueString).
func (v MetaValue) Str() string { return v.str }

// Flag returns the boolean payload (false unless Kind is ValueBool).
func (v MetaValue) Flag() bool { return v.b }

// List returns the list payload (nil unless Kind is ValueList).
func (v MetaValue) List() []string { return v.list }

// IsEmpty reports whether the value carries nothing indexable:
// an empty string, a false boolean, or an empty list.
func (v MetaValue) IsEmpty() bool {
	switch v.kind {
	case ValueString:
		return v.str == ""
	case ValueBool:
		return !v.b
	case ValueList:
		return len(v.list) == 0
	}
	return true
}

// MarshalJSON emits the bare scalar or array, matching the ingestion shape.
func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueBool:
		return json.Marshal(v.b)
	case ValueList:
		if v.list == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.list)
	}
	return nil, fmt.Errorf("unknown metadata value kind %d", v.kind)
}

// UnmarshalJSON sniffs the JSON shape: string, bool, or array of strings.
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = String(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = Strings(list...)
		return nil
	}
	return fmt.Errorf("metadata value must be a string, bool, or string array: %s", string(data))
}

// Field is one metadata key/value pair.
type Field struct {
	Key   string    `json:"key"`
	Value MetaValue `json:"value"`
}

// Metadata is an ordered list of fields. Order is preserved so index
// insertion (and therefore first-seen query ordering) is deterministic.
type Metadata []Field

// Get returns the value for key and whether it was present.
// With duplicate keys the first occurrence wins.
func (m Metadata) Get(key string) (MetaValue, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return MetaValue{}, false
}

// Set appends a field, returning the extended metadata.
func (m Metadata) Set(key string, value MetaValue) Metadata {
	return append(m, Field{Key: key, Value: value})
}
