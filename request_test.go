package httpcore

import (
	"io"
	"strings"
	"testing"
)

func newTestRequest(t *testing.T, body io.Reader) (*Request, *reorderBuffer) {
	t.Helper()
	rb := newReorderBuffer()
	rb.register(0)
	return &Request{
		Method: "GET",
		Target: "/",
		Major:  1,
		Minor:  1,
		body:   body,
		sink:   rb,
	}, rb
}

func TestRequestBodyReturnedOnce(t *testing.T) {
	req, _ := newTestRequest(t, strings.NewReader("payload"))

	got, err := io.ReadAll(req.Body())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}
	if !req.BodyTaken() {
		t.Fatal("BodyTaken should be true after the first Body call")
	}

	second, err := io.ReadAll(req.Body())
	if err != nil {
		t.Fatalf("second ReadAll: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second Body() call should be exhausted, got %q", second)
	}
}

func TestRequestRespondTwiceFails(t *testing.T) {
	req, _ := newTestRequest(t, strings.NewReader(""))

	var got *outcome
	go func() {
		rb := req.sink
		rb.run(func(seq uint64, o *outcome) bool {
			got = o
			return true
		})
	}()

	if err := req.Respond(NewResponse(200)); err != nil {
		t.Fatalf("first Respond: %v", err)
	}
	if err := req.Respond(NewResponse(200)); err != ErrAlreadyResponded {
		t.Fatalf("second Respond err = %v, want ErrAlreadyResponded", err)
	}
	_ = got
}

func TestRequestDrainUnreadBodyIsIdempotent(t *testing.T) {
	n := newNotifyDropReader(strings.NewReader("unread"))
	req, _ := newTestRequest(t, n)
	req.bodyDrop = n

	req.drainUnreadBody()
	req.drainUnreadBody()

	select {
	case <-n.doneCh:
	default:
		t.Fatal("drainUnreadBody should have released the notify reader")
	}
}

func TestRequestExpectContinueTriggersOnBody(t *testing.T) {
	req, _ := newTestRequest(t, strings.NewReader("x"))
	var called bool
	req.expectContinue = true
	req.sendContinue = func() error {
		called = true
		return nil
	}

	req.Body()
	if !called {
		t.Fatal("Body() should trigger sendContinue when Expect: 100-continue is set")
	}
}
