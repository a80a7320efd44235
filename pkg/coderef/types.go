// Package coderef defines the data model shared by every index component:
// code references as produced by an upstream extractor, the records the
// engine derives from them, and the metadata value types attached to both.
package coderef

import (
	"fmt"
	"strings"
	"time"
)

// ElementSentinel is substituted for a missing element name when deriving
// a record id. Chosen to match what extractors emit for anonymous symbols.
const ElementSentinel = "anonymous"

// CodeReference is one occurrence of a named code element.
// Kind and Path are required; Element and Line are optional (Line is
// 1-based, zero means unknown).
type CodeReference struct {
	Kind     string   `json:"kind" validate:"required"`
	Path     string   `json:"path" validate:"required"`
	Element  string   `json:"element,omitempty"`
	Line     int      `json:"line,omitempty" validate:"gte=0"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// ID returns the canonical record id for this reference. Two references
// with identical kind/path/element/line always produce the same id, which
// is what makes ingestion idempotent.
func (r CodeReference) ID() string {
	element := r.Element
	if element == "" {
		element = ElementSentinel
	}
	return fmt.Sprintf("%s:%s:%s:%d", r.Kind, r.Path, element, r.Line)
}

// IndexKeys records the forward-index keys a record was inserted under.
// Element is empty when the reference has no element.
type IndexKeys struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Element string `json:"element,omitempty"`
}

// IndexRecord wraps one CodeReference with its derived id, ingestion
// timestamp, and the index keys it was inserted under.
type IndexRecord struct {
	ID        string        `json:"id"`
	Ref       CodeReference `json:"reference"`
	IndexedAt time.Time     `json:"indexed_at"`
	Keys      IndexKeys     `json:"keys"`
}

// NewIndexRecord builds the record for a reference at the given time.
func NewIndexRecord(ref CodeReference, at time.Time) *IndexRecord {
	return &IndexRecord{
		ID:        ref.ID(),
		Ref:       ref,
		IndexedAt: at,
		Keys: IndexKeys{
			Kind:    ref.Kind,
			Path:    ref.Path,
			Element: ref.Element,
		},
	}
}

// SplitKey parses a metadata key of the form "namespace:subkey".
// Both secondary indices use the same rule: the namespace is everything
// before the first colon. ok is false when the key has no namespace part.
func SplitKey(key string) (namespace, subkey string, ok bool) {
	i := strings.Index(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", key, false
	}
	return key[:i], key[i+1:], true
}
