// Package msgqueue implements the token-addressed blocking rendezvous queue
// for inbound cross-node payloads described in spec.md §4.1, translated
// directly from original_source/comms/src/blazingdb/transport/MessageQueue.cpp:
// Put appends and broadcasts to every waiter; Get(token) blocks until some
// entry with a matching token exists, then removes and returns the first
// such entry in arrival order, with a sentinel producing a nil payload.
package msgqueue

import "sync"

// Entry is a received payload addressed by Token. Sentinel marks end-of-stream
// for that token; its Payload is meaningless and ignored.
type Entry struct {
	Token    string
	Payload  interface{}
	Sentinel bool
}

// Queue is a FIFO-per-token blocking rendezvous. The zero value is not usable;
// construct with New.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries []Entry
}

// New constructs an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends entry and wakes every waiter. Never blocks.
func (q *Queue) Put(entry Entry) {
	q.mu.Lock()
	q.entries = append(q.entries, entry)
	q.mu.Unlock()
	// Broadcast, not Signal: multiple gets on distinct tokens may be waiting
	// and each must re-check the queue for its own token. Spurious wakeups
	// are cheap relative to message volume (spec.md §4.1).
	q.cond.Broadcast()
}

// Get blocks until an entry whose Token equals token exists, then removes and
// returns the first such entry in arrival order. If that entry is a
// sentinel, Get returns (nil, true) to signal end-of-stream for token; the
// caller must not call Get(token) again afterward.
func (q *Queue) Get(token string) (payload interface{}, sentinel bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if idx := q.firstMatchLocked(token); idx >= 0 {
			e := q.entries[idx]
			q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
			if e.Sentinel {
				return nil, true
			}
			return e.Payload, false
		}
		q.cond.Wait()
	}
}

func (q *Queue) firstMatchLocked(token string) int {
	for i, e := range q.entries {
		if e.Token == token {
			return i
		}
	}
	return -1
}
