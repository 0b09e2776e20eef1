package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Element is a handle to one node of a Document. Handles are cheap and
// compare equal via SameNode; the node may be detached by the page at any time.
type Element struct {
	doc  *Document
	node *html.Node
}

// TagName returns the lower-case tag name.
func (e *Element) TagName() string {
	return e.node.Data
}

// Text returns the concatenated text of the element and its descendants (textContent).
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return selectionOf(e.node).Text()
}

// InnerHTML renders the element's children.
func (e *Element) InnerHTML() (string, error) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return selectionOf(e.node).Html()
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether the class attribute lists name.
func (e *Element) HasClass(name string) bool {
	cls, _ := e.Attr("class")
	for _, c := range strings.Fields(cls) {
		if c == name {
			return true
		}
	}
	return false
}

// QuerySelector returns the first descendant matching selector, or nil.
func (e *Element) QuerySelector(selector string) *Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.doc.first(selectionOf(e.node), selector)
}

// QuerySelectorAll returns the descendants matching selector in document order.
func (e *Element) QuerySelectorAll(selector string) []*Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.doc.all(selectionOf(e.node), selector)
}

// Matches reports whether the element itself matches selector.
func (e *Element) Matches(selector string) bool {
	m, err := Compile(selector)
	if err != nil {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return m.Match(e.node)
}

// Connected reports whether the element is still reachable from the document root.
func (e *Element) Connected() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.doc.containsLocked(e.node)
}

// Contains reports whether other is the element itself or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	if other == nil {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for p := other.node; p != nil; p = p.Parent {
		if p == e.node {
			return true
		}
	}
	return false
}

// SameNode reports whether both handles point at the same node.
func (e *Element) SameNode(other *Element) bool {
	return other != nil && e.node == other.node
}

// AddEventListener registers fn for synthetic clicks on this element.
func (e *Element) AddEventListener(fn func(*Element)) {
	e.doc.lisMu.Lock()
	defer e.doc.lisMu.Unlock()
	e.doc.listeners[e.node] = append(e.doc.listeners[e.node], fn)
}

// Click dispatches a synthetic click to the listeners of the element and its
// ancestors, innermost first. Listeners run on the caller's goroutine.
func (e *Element) Click() error {
	if !e.Connected() {
		return ErrDetached
	}

	e.doc.mu.RLock()
	var path []*html.Node
	for p := e.node; p != nil; p = p.Parent {
		path = append(path, p)
	}
	e.doc.mu.RUnlock()

	e.doc.lisMu.Lock()
	var fns []func(*Element)
	for _, n := range path {
		fns = append(fns, e.doc.listeners[n]...)
	}
	e.doc.lisMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	return nil
}
