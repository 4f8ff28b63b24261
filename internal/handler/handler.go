// Package handler exposes the shopping controller as a JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/cesta/internal/app"
	"github.com/dukerupert/cesta/internal/shopping"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// statusFor maps a domain error onto an HTTP status. Anything it does not
// recognise is a server-side failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shopping.ErrEmptyName),
		errors.Is(err, shopping.ErrInvalidLocation),
		errors.Is(err, shopping.ErrNothingPurchased),
		errors.Is(err, shopping.ErrItemNotOnList),
		errors.Is(err, shopping.ErrInvalidPrice),
		errors.Is(err, app.ErrListIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, shopping.ErrListNotFound),
		errors.Is(err, app.ErrUnknownView):
		return http.StatusNotFound
	case errors.Is(err, shopping.ErrListNotActive),
		errors.Is(err, app.ErrListNotCompleted),
		errors.Is(err, app.ErrEmptyList):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeDomainError reports err with its mapped status. Server-side failures
// get a generic message so store details do not leak.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}
