// internal/client/feed.go
//
// Row-change feed for the `client` table.
//
// Context
// -------
// The admin portal re-renders its table live and the metrics gauge tracks
// the active-site count without polling.  Instead of exposing database
// replication mechanics, the repository publishes an Event after every
// successful write and consumers subscribe with an optional row filter.
// The billing core stays synchronous request/response and is unaware of
// subscriptions.
//
// Delivery is per-subscriber goroutine over a bounded buffer.  A slow
// subscriber drops events rather than blocking writers; consumers that
// need a consistent view re-list on reconnect.
package client

import "sync"

// Op labels the kind of row change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// Event describes one committed row change.
type Event struct {
	Op     Op     `json:"op"`
	Client Client `json:"client"`
}

// Filter narrows a subscription.  Zero value matches every event; a
// non-empty Domain restricts delivery to one client row.
type Filter struct {
	Domain string
	Op     Op
}

func (f Filter) matches(ev Event) bool {
	if f.Domain != "" && f.Domain != ev.Client.DomainName {
		return false
	}
	if f.Op != "" && f.Op != ev.Op {
		return false
	}
	return true
}

const subscriberBuffer = 16

type subscriber struct {
	filter Filter
	ch     chan Event
}

// Feed fans row-change events out to subscribers.  Safe for concurrent use.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]*subscriber)}
}

// Subscribe registers fn for events matching filter and returns a cancel
// function.  fn runs on a dedicated goroutine; it must not call back into
// Subscribe's cancel from inside itself.
func (f *Feed) Subscribe(filter Filter, fn func(Event)) (cancel func()) {
	sub := &subscriber{filter: filter, ch: make(chan Event, subscriberBuffer)}

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	go func() {
		for ev := range sub.ch {
			fn(ev)
		}
	}()

	return func() {
		f.mu.Lock()
		if s, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(s.ch)
		}
		f.mu.Unlock()
	}
}

// Publish delivers ev to every matching subscriber without blocking.
func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if !sub.filter.matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// buffer full; drop rather than stall the writer
		}
	}
}
