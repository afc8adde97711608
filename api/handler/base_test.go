package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskshare/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrTitleRequired, http.StatusBadRequest, "INVALID"},
		{domain.ErrSelfShare, http.StatusBadRequest, "SELF_SHARE"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrNotOwner, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrAlreadyShared, http.StatusConflict, "CONFLICT"},
		{domain.ErrViewerNotParticipant, http.StatusInternalServerError, "INTERNAL"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, code := mapError(tc.err)
			if status != tc.status || code != tc.code {
				t.Fatalf("got %d %s, want %d %s", status, code, tc.status, tc.code)
			}
		})
	}
}

func TestTaskID(t *testing.T) {
	h := newBaseHandler(nil, nil)
	for raw, valid := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false, "": false} {
		t.Run(raw, func(t *testing.T) {
			var ctx fasthttp.RequestCtx
			ctx.SetUserValue("id", raw)
			id, ok := h.taskID(&ctx)
			if ok != valid {
				t.Fatalf("expected ok=%v for %q", valid, raw)
			}
			if valid && id != 12 {
				t.Fatalf("expected 12, got %d", id)
			}
			if !valid && ctx.Response.StatusCode() != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
			}
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	h := newBaseHandler(nil, nil)
	var ctx fasthttp.RequestCtx
	h.respondError(&ctx, errors.New("pq: connection refused"))
	if ctx.Response.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", ctx.Response.StatusCode())
	}
	if body := string(ctx.Response.Body()); body != `{"status":"error","code":"INTERNAL","error":"internal server error"}` {
		t.Fatalf("unexpected body %s", body)
	}
}
