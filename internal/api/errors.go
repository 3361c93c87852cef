package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shortmark/shortmark/internal/auth"
	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/shortcode"
	"github.com/shortmark/shortmark/internal/store"
)

// ErrorSource points at the request that caused an error.
type ErrorSource struct {
	Pointer string `json:"pointer"`
}

// ErrorObject is one entry of an error response.
type ErrorObject struct {
	Status string      `json:"status"`
	Source ErrorSource `json:"source"`
	Title  string      `json:"title"`
	Detail string      `json:"detail"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Errors []ErrorObject `json:"errors"`
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a single-entry error response pointing at the request path.
func writeError(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	writeJSON(w, status, ErrorResponse{Errors: []ErrorObject{{
		Status: strconv.Itoa(status),
		Source: ErrorSource{Pointer: r.URL.Path},
		Title:  title,
		Detail: detail,
	}}})
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, "Unauthorized", "A valid bearer token is required.")
}

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Not Found", "The requested URL was not found on the server.")
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed",
		"The method is not allowed for the requested URL.")
}

// writeStoreError maps domain errors to HTTP responses. Anything it does not
// recognise is logged and reported as a generic 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var se *store.Error
	if errors.As(err, &se) {
		writeError(w, r, statusFor(se.Kind), se.Title, se.Detail)
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeNotFound(w, r)
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "Invalid Input", "The request contains invalid data.")
	case errors.Is(err, store.ErrConflict):
		writeError(w, r, http.StatusConflict, "Conflict", "The resource already exists.")
	case errors.Is(err, auth.ErrUnauthorized):
		writeUnauthorized(w, r)
	case errors.Is(err, shortcode.ErrCodeSpaceExhausted):
		log.Error("short code space exhausted", logger.String("path", r.URL.Path))
		writeError(w, r, http.StatusServiceUnavailable, "Short Code Space Exhausted",
			"No free short code is available, please try again later.")
	default:
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Err(err))
		writeError(w, r, http.StatusInternalServerError, "Internal Error", "An internal error occurred.")
	}
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(kind, store.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
