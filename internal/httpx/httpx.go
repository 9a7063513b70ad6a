// Package httpx holds the request decoding and response writing helpers
// shared by every handler.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/apperr"
	"github.com/ovaphlow/cellgroup/internal/week"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Message is the JSON shape of acknowledgement responses.
type Message struct {
	Message string `json:"message"`
	Count   *int   `json:"count,omitempty"`
}

// WriteJSON writes v as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Message{Message: msg})
}

// WriteCount writes {"message": msg, "count": count} with 200.
func WriteCount(w http.ResponseWriter, msg string, count int) {
	WriteJSON(w, http.StatusOK, Message{Message: msg, Count: &count})
}

// WriteError maps err onto a status code. Internal errors are logged with
// their cause and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internalf(err, "internal error")
	}
	status := ae.Kind.Status()
	if ae.Kind == apperr.Internal {
		logger.Errorw("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		WriteJSON(w, status, ErrorBody{Error: "internal server error"})
		return
	}
	logger.Debugw("request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", ae.Kind.String(),
		"err", err,
	)
	WriteJSON(w, status, ErrorBody{Error: ae.Message, Fields: ae.Fields})
}

// Decode reads a JSON body into v and validates it. Unknown fields are
// ignored so clients may echo back whole resources.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.Validation, "request body is required")
		}
		return apperr.Wrap(apperr.Validation, "invalid payload", err)
	}
	return ValidateStruct(v)
}

// WeekParam reads a date URL parameter and normalizes it to its week anchor.
func WeekParam(r *http.Request, name string) (week.Date, error) {
	return parseWeek(name, chi.URLParam(r, name))
}

// WeekQuery is WeekParam for an optional query parameter. ok is false when the
// parameter is absent.
func WeekQuery(r *http.Request, name string) (d week.Date, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return week.Date{}, false, nil
	}
	d, err = parseWeek(name, raw)
	return d, err == nil, err
}

func parseWeek(name, raw string) (week.Date, error) {
	d, err := week.ParseAnchor(raw)
	if err != nil {
		return week.Date{}, apperr.InvalidFields(map[string]string{name: fmt.Sprintf("%s must be a date (YYYY-MM-DD)", name)})
	}
	return d, nil
}
