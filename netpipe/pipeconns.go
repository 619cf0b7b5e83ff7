// Package netpipe provides an in-memory net.Conn pair for exercising
// connection-handling code (parsers, framing, worker pools) without
// opening real sockets.
package netpipe

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// New returns a connected, bi-directional in-memory pipe. Data written
// to one end is read from the other. Unlike net.Pipe, writes are
// buffered: up to four unread writes per direction complete without a
// concurrent Read; a further Write blocks until the peer reads.
func New() (a, b net.Conn) {
	ch1 := make(chan *byteBuffer, 4)
	ch2 := make(chan *byteBuffer, 4)

	pc := &pipePair{stopCh: make(chan struct{})}
	pc.c1.rCh = ch1
	pc.c1.wCh = ch2
	pc.c2.rCh = ch2
	pc.c2.wCh = ch1
	pc.c1.pc = pc
	pc.c2.pc = pc
	return &pc.c1, &pc.c2
}

type pipePair struct {
	c1, c2     pipeConn
	stopCh     chan struct{}
	stopChOnce sync.Once
}

func (pc *pipePair) close() error {
	pc.stopChOnce.Do(func() { close(pc.stopCh) })
	return nil
}

type pipeConn struct {
	b  *byteBuffer
	bb []byte

	rCh chan *byteBuffer
	wCh chan *byteBuffer
	pc  *pipePair
}

func (c *pipeConn) Write(p []byte) (int, error) {
	b := acquireByteBuffer()
	b.b = append(b.b[:0], p...)

	select {
	case <-c.pc.stopCh:
		releaseByteBuffer(b)
		return 0, errConnectionClosed
	default:
	}

	select {
	case c.wCh <- b:
	default:
		select {
		case c.wCh <- b:
		case <-c.pc.stopCh:
			releaseByteBuffer(b)
			return 0, errConnectionClosed
		}
	}

	return len(p), nil
}

func (c *pipeConn) Read(p []byte) (int, error) {
	mayBlock := true
	nn := 0
	for len(p) > 0 {
		n, err := c.read(p, mayBlock)
		nn += n
		if err != nil {
			if !mayBlock && err == errWouldBlock {
				err = nil
			}
			return nn, err
		}
		p = p[n:]
		mayBlock = false
	}
	return nn, nil
}

func (c *pipeConn) read(p []byte, mayBlock bool) (int, error) {
	if len(c.bb) == 0 {
		if err := c.readNextByteBuffer(mayBlock); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.bb)
	c.bb = c.bb[n:]
	return n, nil
}

func (c *pipeConn) readNextByteBuffer(mayBlock bool) error {
	releaseByteBuffer(c.b)
	c.b = nil

	select {
	case c.b = <-c.rCh:
	default:
		if !mayBlock {
			return errWouldBlock
		}
		select {
		case c.b = <-c.rCh:
		case <-c.pc.stopCh:
			return io.EOF
		}
	}

	c.bb = c.b.b
	return nil
}

func (c *pipeConn) Close() error                     { return c.pc.close() }
func (c *pipeConn) LocalAddr() net.Addr              { return pipeAddr(0) }
func (c *pipeConn) RemoteAddr() net.Addr             { return pipeAddr(0) }
func (c *pipeConn) SetDeadline(time.Time) error      { return errNoDeadlines }
func (c *pipeConn) SetReadDeadline(time.Time) error  { return errNoDeadlines }
func (c *pipeConn) SetWriteDeadline(time.Time) error { return errNoDeadlines }

var (
	errWouldBlock       = errors.New("netpipe: would block")
	errConnectionClosed = errors.New("netpipe: connection closed")
	errNoDeadlines      = errors.New("netpipe: deadlines not supported")
)

type pipeAddr int

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

type byteBuffer struct {
	b []byte
}

var byteBufferPool = &sync.Pool{
	New: func() any {
		return &byteBuffer{b: make([]byte, 1024)}
	},
}

func acquireByteBuffer() *byteBuffer {
	return byteBufferPool.Get().(*byteBuffer)
}

func releaseByteBuffer(b *byteBuffer) {
	if b != nil {
		byteBufferPool.Put(b)
	}
}
