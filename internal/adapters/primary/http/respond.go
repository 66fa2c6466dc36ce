package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// TimePolicy is reported in every envelope; all times are KST.
const TimePolicy = "KST"

type envelope struct {
	Data any  `json:"data"`
	Meta meta `json:"meta"`
}

type meta struct {
	Count      *int   `json:"count,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	TimePolicy string `json:"time_policy"`
	RequestID  string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	m := meta{Message: message, TimePolicy: TimePolicy, RequestID: w.Header().Get(RequestIDHeader)}
	if n, ok := count(data); ok {
		m.Count = &n
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data, Meta: m})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Meta: meta{
		Message:    message,
		Code:       code,
		TimePolicy: TimePolicy,
		RequestID:  w.Header().Get(RequestIDHeader),
	}})
}

// count reports the length of list payloads.
func count(data any) (int, bool) {
	if data == nil {
		return 0, false
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return v.Len(), true
	}
	return 0, false
}

// statusFor maps domain errors to HTTP status codes. FetchError is checked
// last because it also wraps the upstream's sentinel. Parse errors only come
// from upstream payloads.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
