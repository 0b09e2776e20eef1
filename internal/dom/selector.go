package dom

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
)

// compiled caches parsed selectors; the extractor re-queries the same
// handful of selectors on every poll tick.
var compiled sync.Map // string → cascadia.Selector

// Compile parses a CSS selector group once and caches the result.
func Compile(selector string) (cascadia.Selector, error) {
	if v, ok := compiled.Load(selector); ok {
		return v.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	compiled.Store(selector, sel)
	return sel, nil
}
