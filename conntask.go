package httpcore

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"io"
	"net"
	"runtime"
	"sync"
	"time"
)

const (
	defaultReadBufferSize  = 4096
	defaultWriteBufferSize = 4096
)

// runConnTask owns one accepted connection end to end: a reader that
// parses successive requests and hands them to the server's inbound
// queue, and a writer that drains the reorder buffer and puts bytes on
// the wire in strict arrival order. Both stop, and the connection is
// closed, once the peer disconnects, a framing error occurs, or the
// connection is upgraded away from HTTP.
func runConnTask(s *Server, conn net.Conn) {
	br := bufio.NewReaderSize(conn, defaultReadBufferSize)
	bw := bufio.NewWriterSize(conn, defaultWriteBufferSize)
	rb := newReorderBuffer()

	var writeMu sync.Mutex
	var upgraded bool
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		rb.run(func(seq uint64, o *outcome) bool {
			writeMu.Lock()
			defer writeMu.Unlock()
			return writeOutcome(s, conn, bw, o, &upgraded)
		})
	}()

	var seq uint64
	for {
		if s.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}

		rl, err := readRequestLine(br)
		if err != nil {
			if seq == 0 && isCleanDisconnect(err) {
				break
			}
			abortWithStatus(s, rb, writerDone, &writeMu, bw, &upgraded, 400, rl.major, rl.minor)
			break
		}

		hdr := &Header{}
		reqLineBytes := len(rl.method) + 1 + len(rl.target) + len(" HTTP/1.1\r\n")
		if err := readHeaders(br, hdr, s.maxHeaderBytes(), reqLineBytes); err != nil {
			status := 400
			if err == ErrHeadersTooLarge {
				status = 431
			}
			abortWithStatus(s, rb, writerDone, &writeMu, bw, &upgraded, status, rl.major, rl.minor)
			break
		}

		kind, length, err := classifyRequestBody(hdr, rl.major, rl.minor)
		if err != nil {
			abortWithStatus(s, rb, writerDone, &writeMu, bw, &upgraded, 400, rl.major, rl.minor)
			break
		}

		curSeq := seq
		seq++
		rb.register(curSeq)

		wantsClose := connectionWantsClose(hdr, rl.major, rl.minor)
		expectContinue := eqFold(hdr.Get("Expect"), "100-continue")

		var bodyReader io.Reader
		var notify *notifyDropReader
		eager := !expectContinue && (kind == bodyEmpty ||
			(kind == bodyLengthDelimited && length <= s.pipeliningThreshold()))

		if eager {
			var buf []byte
			if kind == bodyLengthDelimited && length > 0 {
				buf = make([]byte, length)
				if _, err := io.ReadFull(br, buf); err != nil {
					abortWithStatus(s, rb, writerDone, &writeMu, bw, &upgraded, 400, rl.major, rl.minor)
					break
				}
			}
			bodyReader = bytes.NewReader(buf)
		} else {
			raw := newBodyReader(br, kind, length, s.MaxRequestBodyBytes)
			notify = newNotifyDropReader(raw)
			bodyReader = notify
		}

		req := &Request{
			seq:            curSeq,
			Method:         rl.method,
			Target:         rl.target,
			Major:          rl.major,
			Minor:          rl.minor,
			header:         *hdr,
			remoteAddr:     conn.RemoteAddr(),
			secure:         s.StreamFactory != nil || isSecureConn(conn),
			expectContinue: expectContinue,
			body:           bodyReader,
			bodyDrop:       notify,
			closeRequested: wantsClose,
			sink:           rb,
		}
		if expectContinue {
			req.sendContinue = func() error {
				writeMu.Lock()
				defer writeMu.Unlock()
				if _, err := bw.WriteString("HTTP/1.1 100 Continue\r\n\r\n"); err != nil {
					return err
				}
				return bw.Flush()
			}
		}
		armDropFinalizer(req)

		s.dispatch(req)

		if !eager {
			notify.wait()
		}

		if wantsClose {
			break
		}
	}

	rb.closeWhenDrained()
	<-writerDone
	if !upgraded {
		conn.Close()
	}
}

// writeOutcome performs one outcome's wire work and reports whether
// the writer goroutine (and therefore the connection) should stop.
func writeOutcome(s *Server, conn net.Conn, bw *bufio.Writer, o *outcome, upgraded *bool) bool {
	if s.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}

	switch o.kind {
	case outcomeRespond:
		closeAfter, err := writeResponse(bw, o.resp, o.major, o.minor, o.headOnly, o.closeRequested, s)
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
		stop := err != nil || closeAfter
		if stop {
			// Proactively close so a reader goroutine blocked
			// waiting on a pipelined request it shouldn't have
			// gotten (the close decision was only known once the
			// response was framed) unblocks immediately instead of
			// waiting on a peer that will never write more.
			conn.Close()
		}
		return stop

	case outcomeRaw:
		o.rawHandoffCh <- bw
		<-o.rawDoneCh
		conn.Close()
		return true

	case outcomeUpgrade:
		_, err := writeResponse(bw, o.resp, o.major, o.minor, false, false, s)
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
		*upgraded = err == nil
		o.upgradeCh <- conn
		return true

	default:
		panic("BUG: unknown outcome kind")
	}
}

// abortWithStatus is used when the reader hits a framing error with no
// Request object to route the response through. It drains whatever
// pipelined responses are already in flight, then writes a minimal
// synthetic response directly, ahead of anything further.
func abortWithStatus(s *Server, rb *reorderBuffer, writerDone chan struct{}, writeMu *sync.Mutex, bw *bufio.Writer, upgraded *bool, status, major, minor int) {
	if major == 0 {
		major, minor = 1, 1
	}
	rb.closeWhenDrained()
	<-writerDone
	if *upgraded {
		return
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	resp := NewResponse(status)
	resp.Header.Set("Connection", "close")
	resp.SetBodyBytes([]byte(ReasonPhrase(status)))
	writeResponse(bw, resp, major, minor, false, true, s)
	bw.Flush()
}

func isCleanDisconnect(err error) bool {
	return err == io.EOF
}

// connectionWantsClose applies RFC 7230 §6.1's default persistence:
// HTTP/1.1 is persistent unless Connection: close is present; HTTP/1.0
// closes unless Connection: keep-alive is present.
func connectionWantsClose(h *Header, major, minor int) bool {
	conn := h.Get("Connection")
	if hasToken(conn, "close") {
		return true
	}
	if major == 1 && minor == 1 {
		return false
	}
	return !hasToken(conn, "keep-alive")
}

func hasToken(value, token string) bool {
	for _, part := range splitComma(value) {
		if eqFold(trimOWS(part), token) {
			return true
		}
	}
	return false
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func isSecureConn(conn net.Conn) bool {
	_, ok := conn.(*tls.Conn)
	return ok
}

// armDropFinalizer arranges for a synthetic 500 to be sent if the
// application lets req become unreachable without ever calling
// Respond, RespondRaw or Upgrade. Finalizer timing is best-effort: it
// only catches drops that survive to the next garbage collection, not
// an immediate guarantee, but it is how this package honors "a request
// dropped without a response gets a 500 and the connection closes".
func armDropFinalizer(req *Request) {
	runtime.SetFinalizer(req, func(r *Request) {
		if r.responded.CompareAndSwap(false, true) {
			r.drainUnreadBody()
			resp := NewResponse(500)
			resp.Header.Set("Connection", "close")
			o := r.baseOutcome(outcomeRespond)
			o.resp = resp
			o.closeRequested = true
			r.sink.fulfil(r.seq, &o)
		}
	})
}
