package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/ttlserve/observe"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{100, ""},
		{200, ""},
		{204, ""},
		{301, ""},
		{399, ""},
		{400, MsgBadRequest},
		{401, MsgClientError},
		{404, MsgClientError},
		{405, MsgClientError},
		{499, MsgClientError},
		{500, MsgInternalError},
		{501, MsgServerError},
		{503, MsgServerError},
		{599, MsgServerError},
		{0, MsgUnknownFailure},
		{99, MsgUnknownFailure},
		{600, MsgUnknownFailure},
		{999, MsgUnknownFailure},
	}

	for _, tt := range tests {
		if got := Classify(tt.status); got != tt.want {
			t.Errorf("Classify(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestErrorClassifier_Intercept(t *testing.T) {
	var buf bytes.Buffer
	c := NewErrorClassifier(observe.NewLoggerWithWriter("debug", &buf))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	t.Run("success untouched", func(t *testing.T) {
		res := &Response{Status: 200, Header: http.Header{}, Body: []byte("original")}
		if c.Intercept(req, res) {
			t.Error("Intercept() = true for a 200")
		}
		if string(res.Body) != "original" {
			t.Errorf("Body = %q, want untouched", res.Body)
		}
	})

	t.Run("error rewritten", func(t *testing.T) {
		res := &Response{Status: 503, Header: http.Header{}, Body: []byte("db password wrong")}
		if !c.Intercept(req, res) {
			t.Error("Intercept() = false for a 503")
		}
		var body Body
		if err := json.Unmarshal(res.Body, &body); err != nil {
			t.Fatalf("body not JSON: %v", err)
		}
		if body.Content != MsgServerError {
			t.Errorf("content = %q, want %q", body.Content, MsgServerError)
		}
		if res.Status != 503 {
			t.Errorf("Status = %d, status must be preserved", res.Status)
		}
		if ct := res.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	if !strings.Contains(buf.String(), "response classified") {
		t.Errorf("expected a classification log entry, got %q", buf.String())
	}
}

func TestCatcher_ChainStopsAtFirstTrue(t *testing.T) {
	var calls []string
	first := InterceptorFunc(func(r *http.Request, res *Response) bool {
		calls = append(calls, "first")
		res.Header.Set("X-First", "1")
		return false
	})
	second := InterceptorFunc(func(r *http.Request, res *Response) bool {
		calls = append(calls, "second")
		res.Body = []byte("rewritten")
		return true
	})
	third := InterceptorFunc(func(r *http.Request, res *Response) bool {
		calls = append(calls, "third")
		return false
	})

	h := Catcher(first, second, third)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("from handler"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(calls, ",") != "first,second" {
		t.Errorf("calls = %v, want [first second]", calls)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("Code = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "rewritten" {
		t.Errorf("Body = %q, want rewritten", rec.Body.String())
	}
	if rec.Header().Get("X-First") != "1" {
		t.Error("header set by the first interceptor was lost")
	}
	if rec.Header().Get("Content-Length") != "9" {
		t.Errorf("Content-Length = %q, want 9", rec.Header().Get("Content-Length"))
	}
}

func TestCatcher_InternalErrorHidesCause(t *testing.T) {
	h := Catcher(NewErrorClassifier(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errFake("connection reset by peer"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Code = %d, want 500", rec.Code)
	}
	if got := decodeContent(t, rec.Body.Bytes()); got != MsgInternalError {
		t.Errorf("content = %q, want %q", got, MsgInternalError)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Error("internal error detail leaked to the client")
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }

func decodeContent(t *testing.T, b []byte) string {
	t.Helper()
	var body Body
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("body %q is not JSON: %v", b, err)
	}
	return body.Content
}
