package dom

import "sync"

// MutationRecord describes one child-list change. Target is the node whose
// children were changed.
type MutationRecord struct {
	Target *Element
}

type observer struct {
	id   uint64
	root *Element
	fn   func(MutationRecord)
}

// Observe subscribes fn to child-list mutations anywhere in the subtree of
// root (the whole document when root is nil). fn runs synchronously on the
// mutating goroutine after the write lock is released, so it may query the
// document but must not block.
//
// The returned disconnect func is idempotent.
func (d *Document) Observe(root *Element, fn func(MutationRecord)) (disconnect func()) {
	d.obsMu.Lock()
	d.nextObsID++
	o := &observer{id: d.nextObsID, root: root, fn: fn}
	d.observers = append(d.observers, o)
	d.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.obsMu.Lock()
			defer d.obsMu.Unlock()
			for i, cur := range d.observers {
				if cur.id == o.id {
					d.observers = append(d.observers[:i], d.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// ObserverCount returns the number of live subscriptions.
func (d *Document) ObserverCount() int {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	return len(d.observers)
}

func (d *Document) notify(rec MutationRecord) {
	d.obsMu.Lock()
	snapshot := make([]*observer, len(d.observers))
	copy(snapshot, d.observers)
	d.obsMu.Unlock()

	for _, o := range snapshot {
		if o.root != nil && !o.root.Contains(rec.Target) {
			continue
		}
		o.fn(rec)
	}
}
