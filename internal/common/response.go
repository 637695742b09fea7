package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// Envelope is the JSON shape of every non-health response.
type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       any               `json:"data,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	RetryAfter int               `json:"retryAfter,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"` + MsgInternalError + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func RespondSuccess(w http.ResponseWriter, code int, message string, data any) {
	RespondWithJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

// ErrorResponder is the terminal error handler: the single place that maps
// an error kind to a status code, a response body, and a logging decision.
type ErrorResponder struct {
	Log        *slog.Logger
	Production bool
}

func (er *ErrorResponder) logger() *slog.Logger {
	if er.Log != nil {
		return er.Log
	}
	return slog.Default()
}

// Respond writes the error envelope for err. Operational 4xx errors are
// logged at warn level; anything mapping to 5xx is logged at error level
// with full context and reported to the client as a generic message when
// running in production.
func (er *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatusFromError(err)
	env := Envelope{Success: false, Message: err.Error()}

	var ve *ValidationError
	var rle *RateLimitError
	switch {
	case errors.As(err, &ve):
		env.Errors = ve.Violations
	case errors.As(err, &rle):
		env.RetryAfter = rle.RetryAfter
		w.Header().Set("Retry-After", strconv.Itoa(rle.RetryAfter))
	}

	if status >= http.StatusInternalServerError {
		er.logger().Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		env.Message = MsgInternalError
		if !er.Production {
			env.Detail = err.Error()
		}
	} else {
		er.logger().Warn("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"reason", err.Error(),
		)
	}

	RespondWithJSON(w, status, env)
}
