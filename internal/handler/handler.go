package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"holocron/internal/domain"
)

// writeError переводит типизированные доменные ошибки в HTTP-статусы.
// Вид отказа различается через errors.Is, текст наружу не протекает.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrPermissionDenied):
		http.Error(w, "Access denied", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrStorage):
		http.Error(w, "Storage unavailable", http.StatusBadGateway)
	default:
		log.Printf("[handler] Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[handler] Error encoding response: %v", err)
	}
}

// parseOptionalID читает необязательный числовой параметр.
// Пустое значение возвращается как nil, а не ноль.
func parseOptionalID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
