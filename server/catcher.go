package server

import (
	"bytes"
	"net/http"
	"strconv"
)

// Response is a buffered response an Interceptor may rewrite before it is
// sent.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Interceptor inspects or rewrites a buffered response. Returning true stops
// the chain.
type Interceptor interface {
	Intercept(r *http.Request, res *Response) bool
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(r *http.Request, res *Response) bool

// Intercept calls f.
func (f InterceptorFunc) Intercept(r *http.Request, res *Response) bool {
	return f(r, res)
}

// Catcher returns middleware that buffers next's output, runs chain over it
// in order, and then writes the result.
func Catcher(chain ...Interceptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := &bufferedWriter{header: make(http.Header)}
			next.ServeHTTP(buf, r)

			res := &Response{
				Status: buf.Status(),
				Header: buf.header,
				Body:   buf.body.Bytes(),
			}
			for _, ic := range chain {
				if ic.Intercept(r, res) {
					break
				}
			}

			dst := w.Header()
			for k, v := range res.Header {
				dst[k] = v
			}
			dst.Set("Content-Length", strconv.Itoa(len(res.Body)))
			w.WriteHeader(res.Status)
			if r.Method != http.MethodHead {
				_, _ = w.Write(res.Body)
			}
		})
	}
}

// bufferedWriter collects a response in memory.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) Status() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}
