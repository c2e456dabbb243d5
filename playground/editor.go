package playground

import "sync"

// Editor is the text surface the user types into. The session reads Source
// when a run is requested and pushes new text through OnChange when an
// example is selected; edits never trigger a run on their own.
type Editor interface {
	Source() string
	OnChange(text string)
}

// TextEditor is an in-memory Editor
type TextEditor struct {
	mu       sync.RWMutex
	text     string
	revision int
}

// NewTextEditor creates an editor holding initial
func NewTextEditor(initial string) *TextEditor {
	return &TextEditor{text: initial}
}

// Source returns the current text
func (e *TextEditor) Source() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// OnChange replaces the text
func (e *TextEditor) OnChange(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if text == e.text {
		return
	}
	e.text = text
	e.revision++
}

// Revision counts the changes made so far
func (e *TextEditor) Revision() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}
