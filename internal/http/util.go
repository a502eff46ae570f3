package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ducnt198x/resbarpos/internal/repository"
	"github.com/ducnt198x/resbarpos/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// writeError maps service sentinels onto HTTP statuses and emits the
// standard failure envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotAdmin):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUnknownTable),
		errors.Is(err, service.ErrUnknownMenuItem),
		errors.Is(err, service.ErrNoActiveOrder),
		errors.Is(err, service.ErrNoCart),
		errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrTargetOccupied),
		errors.Is(err, service.ErrTargetHasNoOrder),
		errors.Is(err, service.ErrDuplicateLabel),
		errors.Is(err, service.ErrGestureActive),
		errors.Is(err, service.ErrOrderFinished),
		errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotEditing),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrSoldOut),
		errors.Is(err, service.ErrNoGesture):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, Fail(err.Error()))
}

// userID resolves the acting user from the gateway-injected header.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}
