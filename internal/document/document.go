// Package document provides the immutable named source text that the
// rest of the pipeline anchors intervals into.
package document

import (
	"fmt"

	"github.com/jamplate/jamplate/internal/errs"
)

// Document is an immutable named source. Two documents are equal, and
// hash the same, purely by name — content is irrelevant to identity.
//
// A Document may be live (backed by an in-memory string) or a
// deserialized shell (name only); content access on a shell fails
// with errs.ErrIllegalState.
type Document struct {
	name    string
	content string
	isShell bool
}

// New returns a live document with the given name and content.
func New(name, content string) *Document {
	return &Document{name: name, content: content}
}

// Shell returns a deserialized-shell document: its name is known but
// any content access fails. Used when rehydrating a persisted
// Environment whose document bodies were never re-attached.
func Shell(name string) *Document {
	return &Document{name: name, isShell: true}
}

// Name is the document's identity. Equality and hashing elsewhere in
// the pipeline (map keys, the compile cache namespace) use this alone.
func (d *Document) Name() string {
	return d.name
}

// Length returns the length of the document's content in runes.
func (d *Document) Length() (int, error) {
	if d.isShell {
		return 0, errs.IllegalState("document %q is a deserialized shell: length unavailable", d.name)
	}
	return len([]rune(d.content)), nil
}

// ReadContent returns the full content of the document.
func (d *Document) ReadContent() (string, error) {
	if d.isShell {
		return "", errs.IllegalState("document %q is a deserialized shell: content unavailable", d.name)
	}
	return d.content, nil
}

// IsShell reports whether this document was deserialized without its
// content (see Shell).
func (d *Document) IsShell() bool {
	return d.isShell
}

// Slice returns the content in the half-open rune range [start, end).
func (d *Document) Slice(start, end int) (string, error) {
	content, err := d.ReadContent()
	if err != nil {
		return "", err
	}
	runes := []rune(content)
	if start < 0 || end < start || end > len(runes) {
		return "", errs.InvalidInput("slice [%d,%d) out of bounds for document %q (length %d)", start, end, d.name, len(runes))
	}
	return string(runes[start:end]), nil
}

// String renders a diagnostic identity for the document, never its
// content.
func (d *Document) String() string {
	return fmt.Sprintf("Document(%s)", d.name)
}
