package extractor

import (
	"context"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/dom"
)

// AwaitElement returns the first element matching selector, waiting up to
// timeout for it to appear. It resolves immediately when the element already
// exists; otherwise it watches child-list mutations under <body> and re-queries
// on each one. Exactly one subscription is taken and it is released on every
// return path.
func AwaitElement(ctx context.Context, doc Document, selector string, timeout time.Duration) (*dom.Element, error) {
	if el := doc.QuerySelector(selector); el != nil {
		return el, nil
	}

	found := make(chan *dom.Element, 1)
	disconnect := doc.Observe(doc.Body(), func(dom.MutationRecord) {
		if el := doc.QuerySelector(selector); el != nil {
			select {
			case found <- el:
			default:
			}
		}
	})
	defer disconnect()

	// The element may have been inserted between the first query and Observe.
	if el := doc.QuerySelector(selector); el != nil {
		return el, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case el := <-found:
		return el, nil
	case <-timer.C:
		return nil, &ElementNotFoundError{Selector: selector, Timeout: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
