package httpcore

import "sync"

// reorderBuffer lets responses be produced by the application in any
// order while guaranteeing they are written to the wire in the exact
// order the requests arrived: a cursor tracks the next sequence number
// due for writing, and outcomes that arrive early wait in pending
// until their turn comes.
type reorderBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	cursor uint64
	pending map[uint64]*pendingEntry
	closed bool
}

type pendingEntry struct {
	outcome *outcome
	ready   bool
}

func newReorderBuffer() *reorderBuffer {
	rb := &reorderBuffer{pending: make(map[uint64]*pendingEntry)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// register reserves seq's slot before the request is handed to the
// application, so run never mistakes "not yet arrived" for "never
// coming".
func (rb *reorderBuffer) register(seq uint64) {
	rb.mu.Lock()
	rb.pending[seq] = &pendingEntry{}
	rb.mu.Unlock()
}

// fulfil records the outcome for seq and wakes the writer if it is
// waiting on this slot.
func (rb *reorderBuffer) fulfil(seq uint64, o *outcome) {
	rb.mu.Lock()
	e := rb.pending[seq]
	e.outcome = o
	e.ready = true
	rb.mu.Unlock()
	rb.cond.Broadcast()
}

// closeWhenDrained tells run that no further register calls will
// happen, so once the pending map is exhausted it should return
// instead of waiting forever.
func (rb *reorderBuffer) closeWhenDrained() {
	rb.mu.Lock()
	rb.closed = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}

// run invokes handle for each registered outcome strictly in sequence
// order, blocking between them until the next slot is ready. It
// returns once handle reports stop, or once closeWhenDrained has been
// called and every registered slot has been handled.
func (rb *reorderBuffer) run(handle func(seq uint64, o *outcome) (stop bool)) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for {
		e, ok := rb.pending[rb.cursor]
		if !ok {
			if rb.closed {
				return
			}
			rb.cond.Wait()
			continue
		}
		if !e.ready {
			rb.cond.Wait()
			continue
		}

		delete(rb.pending, rb.cursor)
		seq := rb.cursor
		rb.cursor++
		o := e.outcome

		rb.mu.Unlock()
		stop := handle(seq, o)
		rb.mu.Lock()

		if stop {
			return
		}
	}
}
