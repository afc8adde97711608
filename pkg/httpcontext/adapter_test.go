package httpcontext

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"
)

func TestRequestIDIsStable(t *testing.T) {
	var ctx fasthttp.RequestCtx
	first := RequestID(&ctx)
	if first == "" || RequestID(&ctx) != first {
		t.Fatal("request id must be minted once")
	}
	if string(ctx.Response.Header.Peek("X-Request-ID")) != first {
		t.Fatal("request id must be echoed")
	}

	var incoming fasthttp.RequestCtx
	incoming.Request.Header.Set("X-Request-ID", "abc")
	if RequestID(&incoming) != "abc" {
		t.Fatal("incoming request id must be reused")
	}
}

func TestAttachCarriesDeadlineAndRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Request-ID", "req-1")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	if _, ok := stdCtx.Deadline(); !ok {
		t.Fatal("expected a deadline")
	}

	detached, cancelDetached := NewAdapter(time.Second).Detached(&ctx)
	defer cancelDetached()
	if _, ok := detached.Deadline(); ok {
		t.Fatal("detached context must not expire")
	}
}
