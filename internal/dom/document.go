// Package dom is a live, concurrently mutable HTML document.
//
// It exposes the read surface a page script would use (querySelector,
// querySelectorAll, textContent, click) on top of goquery, plus the write
// surface a host page uses to render itself. Writers go through Mutate so
// that subtree observers are notified after every structural change.
package dom

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrDetached is returned when acting on an element that is no longer part of its document.
var ErrDetached = errors.New("element is not attached to the document")

// Document is an HTML tree shared between the page that renders it and the
// readers that scan it. All reads take the read lock; Mutate takes the write lock.
type Document struct {
	mu   sync.RWMutex
	doc  *goquery.Document
	url  string
	root *html.Node

	obsMu     sync.Mutex
	observers []*observer
	nextObsID uint64

	lisMu     sync.Mutex
	listeners map[*html.Node][]func(*Element)
}

// Parse builds a Document from HTML. pageURL is reported by URL().
func Parse(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		doc:       doc,
		url:       pageURL,
		root:      doc.Nodes[0],
		listeners: make(map[*html.Node][]func(*Element)),
	}, nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(s), pageURL)
}

// URL returns the page location the document was loaded from.
func (d *Document) URL() string { return d.url }

// Title returns the trimmed text of the <title> element, like document.title.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Body returns the <body> element, or nil for a body-less tree.
func (d *Document) Body() *Element {
	return d.QuerySelector("body")
}

// QuerySelector returns the first element in document order matching selector, or nil.
// An invalid selector matches nothing.
func (d *Document) QuerySelector(selector string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.first(d.doc.Selection, selector)
}

// QuerySelectorAll returns every element matching selector in document order.
func (d *Document) QuerySelectorAll(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.all(d.doc.Selection, selector)
}

// Mutate applies fn to the selection wrapping target under the write lock and
// then notifies observers whose root contains target. A nil target mutates the
// document root.
func (d *Document) Mutate(target *Element, fn func(s *goquery.Selection)) error {
	node := d.root
	if target != nil {
		node = target.node
	}

	d.mu.Lock()
	if target != nil && !d.containsLocked(node) {
		d.mu.Unlock()
		return ErrDetached
	}
	fn(selectionOf(node))
	d.mu.Unlock()

	d.notify(MutationRecord{Target: d.wrap(node)})
	return nil
}

// AppendHTML parses markup and appends it as children of target.
func (d *Document) AppendHTML(target *Element, markup string) error {
	return d.Mutate(target, func(s *goquery.Selection) {
		s.AppendHtml(markup)
	})
}

// SetText replaces the children of target with a single text node.
func (d *Document) SetText(target *Element, text string) error {
	return d.Mutate(target, func(s *goquery.Selection) {
		s.SetText(text)
	})
}

// SetAttr sets an attribute on target. Attribute changes are not child-list
// mutations, so observers are not notified.
func (d *Document) SetAttr(target *Element, name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.containsLocked(target.node) {
		return ErrDetached
	}
	selectionOf(target.node).SetAttr(name, value)
	return nil
}

// Remove detaches target from the tree.
func (d *Document) Remove(target *Element) error {
	d.mu.Lock()
	parent := target.node.Parent
	if parent == nil || !d.containsLocked(target.node) {
		d.mu.Unlock()
		return ErrDetached
	}
	parent.RemoveChild(target.node)
	d.mu.Unlock()

	d.notify(MutationRecord{Target: d.wrap(parent)})
	return nil
}

func (d *Document) first(from *goquery.Selection, selector string) *Element {
	m, err := Compile(selector)
	if err != nil {
		slog.Debug("dom: invalid selector", slog.String("selector", selector), slog.Any("error", err))
		return nil
	}
	found := from.FindMatcher(m)
	if found.Length() == 0 {
		return nil
	}
	return d.wrap(found.Nodes[0])
}

func (d *Document) all(from *goquery.Selection, selector string) []*Element {
	m, err := Compile(selector)
	if err != nil {
		slog.Debug("dom: invalid selector", slog.String("selector", selector), slog.Any("error", err))
		return nil
	}
	found := from.FindMatcher(m)
	out := make([]*Element, 0, len(found.Nodes))
	for _, n := range found.Nodes {
		out = append(out, d.wrap(n))
	}
	return out
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

// containsLocked reports whether n is reachable from the root. Caller holds mu.
func (d *Document) containsLocked(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// selectionOf wraps a single node so goquery operations are scoped to it.
func selectionOf(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}
