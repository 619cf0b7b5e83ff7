// Package httpadaptor bridges net/http.Handler onto httpcore, for
// callers migrating an existing handler rather than writing directly
// against Request/Response.
package httpadaptor

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/mholt-labs/httpcore"
)

// Handler adapts h into a function that answers an httpcore.Request,
// suitable for the goroutine that receives requests off
// Server.Recv/IncomingRequests.
//
// The net/http handler runs on its own goroutine so http.Flusher
// streaming works: ResponseWriter.Flush switches the bridge from a
// fully-buffered response to a chunked one fed by an io.Pipe.
// http.Hijacker is not implemented — use Request.Upgrade directly for
// protocol switches.
func Handler(h http.Handler) func(*httpcore.Request) {
	return func(req *httpcore.Request) {
		hr, err := convertRequest(req)
		if err != nil {
			resp := httpcore.NewResponse(http.StatusBadRequest)
			resp.SetBodyBytes([]byte("bad request"))
			req.Respond(resp)
			return
		}

		w := newBridgeWriter()
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					select {
					case w.modeCh <- modePanicked:
					default:
					}
				} else {
					select {
					case w.modeCh <- modeDone:
					default:
					}
				}
				w.pw.Close()
			}()
			h.ServeHTTP(w, hr)
		}()

		switch <-w.modeCh {
		case modeDone:
			resp := httpcore.NewResponse(w.status())
			copyHeader(&resp.Header, w.Header())
			resp.SetBodyBytes(w.bufferedBody())
			req.Respond(resp)

		case modeFlushed:
			resp := httpcore.NewResponse(w.status())
			copyHeader(&resp.Header, w.Header())
			resp.SetBodyStream(struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(w.bufferedBody()), w.pr), w.pr}, -1)
			req.Respond(resp)

		case modePanicked:
			resp := httpcore.NewResponse(http.StatusInternalServerError)
			resp.SetBodyBytes([]byte("internal server error"))
			req.Respond(resp)
		}
	}
}

func copyHeader(dst *httpcore.Header, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

// convertRequest builds an *http.Request from an httpcore.Request. The
// body is handed over directly; the caller must not call req.Body
// again.
func convertRequest(req *httpcore.Request) (*http.Request, error) {
	u, err := url.ParseRequestURI(req.Target)
	if err != nil {
		return nil, err
	}

	hr := &http.Request{
		Method:     req.Method,
		URL:        u,
		Proto:      "HTTP/1.1",
		ProtoMajor: req.Major,
		ProtoMinor: req.Minor,
		Header:     make(http.Header),
		Body:       io.NopCloser(req.Body()),
		RemoteAddr: req.RemoteAddr().String(),
		RequestURI: req.Target,
		Host:       u.Host,
	}

	for _, f := range req.Headers().All() {
		hr.Header.Add(f.Name, f.Value)
	}
	if hr.Host == "" {
		hr.Host = hr.Header.Get("Host")
	}
	return hr, nil
}

const (
	modeDone = iota + 1
	modeFlushed
	modePanicked
)

// bridgeWriter implements http.ResponseWriter + http.Flusher over an
// httpcore.Response. Until Flush is called the body is buffered so the
// common non-streaming handler pays no pipe overhead; after Flush,
// further writes go straight to an io.Pipe that feeds the streamed
// Response body.
type bridgeWriter struct {
	header     http.Header
	statusCode atomic.Int64

	mu     sync.Mutex
	body   []byte
	pw     *io.PipeWriter
	pr     *io.PipeReader
	mode   atomic.Int32
	modeCh chan int

	flushOnce sync.Once
}

func newBridgeWriter() *bridgeWriter {
	pr, pw := io.Pipe()
	return &bridgeWriter{
		header: make(http.Header),
		pr:     pr,
		pw:     pw,
		modeCh: make(chan int, 1),
	}
}

func (w *bridgeWriter) Header() http.Header { return w.header }

func (w *bridgeWriter) WriteHeader(code int) {
	w.statusCode.CompareAndSwap(0, int64(code))
}

func (w *bridgeWriter) Write(p []byte) (int, error) {
	if w.mode.Load() == modeFlushed {
		return w.pw.Write(p)
	}
	w.mu.Lock()
	w.body = append(w.body, p...)
	w.mu.Unlock()
	return len(p), nil
}

func (w *bridgeWriter) Flush() {
	w.flushOnce.Do(func() {
		w.mode.Store(modeFlushed)
		select {
		case w.modeCh <- modeFlushed:
		default:
		}
	})
}

func (w *bridgeWriter) status() int {
	if c := int(w.statusCode.Load()); c != 0 {
		return c
	}
	return http.StatusOK
}

func (w *bridgeWriter) bufferedBody() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body
}
