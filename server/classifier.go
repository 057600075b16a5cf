package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonwraymond/ttlserve/observe"
)

// Classifier messages.
const (
	MsgBadRequest     = "invalid parameter is set."
	MsgInternalError  = "internal error occurred."
	MsgClientError    = "4xx error occurred."
	MsgServerError    = "5xx error occurred."
	MsgUnknownFailure = "something went wrong."
)

// Classify maps a status code to the message clients see. Informational,
// success and redirect codes map to "".
func Classify(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return MsgBadRequest
	case status == http.StatusInternalServerError:
		return MsgInternalError
	case status >= 100 && status < 400:
		return ""
	case status >= 400 && status < 500:
		return MsgClientError
	case status >= 500 && status < 600:
		return MsgServerError
	default:
		return MsgUnknownFailure
	}
}

// IsError reports whether status is a client or server error.
func IsError(status int) bool {
	return status >= 400 && status < 600
}

// ErrorClassifier rewrites error responses to their classified message.
type ErrorClassifier struct {
	logger observe.Logger
}

// NewErrorClassifier creates the classifier. A nil logger discards.
func NewErrorClassifier(logger observe.Logger) *ErrorClassifier {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &ErrorClassifier{logger: logger.With(observe.F("component", "classifier"))}
}

// Intercept replaces the body of a 4xx/5xx response and ends the chain.
// Other responses pass through untouched.
func (c *ErrorClassifier) Intercept(r *http.Request, res *Response) bool {
	if !IsError(res.Status) {
		return false
	}

	msg := Classify(res.Status)
	c.logger.Warn(r.Context(), "response classified",
		observe.F("status", res.Status),
		observe.F("path", r.URL.Path),
		observe.F("original", string(res.Body)),
		observe.F("message", msg),
	)

	body, _ := json.Marshal(Body{Content: msg})
	res.Body = append(body, '\n')
	res.Header.Set("Content-Type", "application/json")
	return true
}

var _ Interceptor = (*ErrorClassifier)(nil)
