package httpcore

import (
	"io"
	"sync"
)

// notifyDropReader wraps a body reader so that its release — whether
// the application reads it to EOF, explicitly closes it, or never
// touches it at all and the connection task has to drain it on the
// request's behalf — signals a one-shot channel exactly once. The
// connection task waits on that channel before it is safe to resume
// reading the next pipelined request off the same socket, since the
// body reader may still be consuming bytes directly from the shared
// bufio.Reader.
//
// This sidesteps explicit cancellation: application code that ignores
// the body entirely still releases the socket, because Drain reads the
// rest of the body off the connection before releasing. Close, by
// contrast, releases without reading anything.
type notifyDropReader struct {
	r      io.Reader
	doneCh chan struct{}
	once   sync.Once
	err    error
}

func newNotifyDropReader(r io.Reader) *notifyDropReader {
	return &notifyDropReader{r: r, doneCh: make(chan struct{})}
}

func (n *notifyDropReader) Read(p []byte) (int, error) {
	nr, err := n.r.Read(p)
	if err != nil {
		n.signal(err)
	}
	return nr, err
}

// Close releases the reader without requiring it to be drained to EOF
// first. It is always safe to call, any number of times.
func (n *notifyDropReader) Close() error {
	n.signal(io.EOF)
	return nil
}

// Drain reads and discards any remaining bytes, then releases. It is
// what the request object calls on a body nobody ever asked for.
func (n *notifyDropReader) Drain() error {
	_, err := io.Copy(io.Discard, n.r)
	if err != nil && err != io.EOF {
		n.signal(err)
		return err
	}
	n.signal(io.EOF)
	return nil
}

func (n *notifyDropReader) signal(err error) {
	n.once.Do(func() {
		n.err = err
		close(n.doneCh)
	})
}

// wait blocks until the reader has been released.
func (n *notifyDropReader) wait() {
	<-n.doneCh
}
