package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/ttlserve/cache"
	"github.com/jonwraymond/ttlserve/observe"
)

// SharedKey is the cache slot the read-modify-write handler works on.
const SharedKey cache.Key = 0

// QueryContent is the fixed body of GET /healthz.
const QueryContent = "foo"

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Body is the request and response shape.
type Body struct {
	Content string `json:"content"`
}

// postBody distinguishes a missing content field from an empty one.
type postBody struct {
	Content *string `json:"content"`
}

// Handlers serves the cache routes.
type Handlers struct {
	store        cache.Cache
	logger       observe.Logger
	maxBodyBytes int64
}

// NewHandlers creates handlers over store. A non-positive maxBodyBytes uses
// DefaultMaxBodyBytes.
func NewHandlers(store cache.Cache, logger observe.Logger, maxBodyBytes int64) *Handlers {
	if logger == nil {
		logger = observe.NopLogger()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handlers{
		store:        store,
		logger:       logger.With(observe.F("component", "handler")),
		maxBodyBytes: maxBodyBytes,
	}
}

// Query answers with the fixed payload.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	h.logger.Info(r.Context(), "healthz was called")
	writeJSON(w, http.StatusOK, Body{Content: QueryContent})
}

// ReadModifyWrite reads the value at SharedKey, stores the submitted content
// there and answers with both, previous first. An absent previous value is
// rendered as "".
func (h *Handlers) ReadModifyWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.Info(ctx, "post_healthz was called")

	content, err := h.decode(w, r)
	if err != nil {
		h.logger.Debug(ctx, "request rejected", observe.F("error", err))
		writeError(w, err)
		return
	}

	prev := h.store.Get(ctx, SharedKey).OrEmpty()
	h.store.Insert(ctx, SharedKey, content)

	writeJSON(w, http.StatusOK, Body{Content: prev + " " + content})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request) (string, error) {
	var body postBody

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return "", ErrBadRequest(err)
	}
	if dec.More() {
		return "", ErrBadRequest(errors.New("trailing data after JSON object"))
	}
	if body.Content == nil {
		return "", ErrBadRequest(fmt.Errorf("missing field %q", "content"))
	}
	return *body.Content, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	e := asError(err)
	writeJSON(w, e.Status, Body{Content: e.Content})
}
