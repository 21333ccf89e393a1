package domain

import "errors"

// Типизированные ошибки вместо "null + лог": обработчики различают вид
// отказа через errors.Is и выбирают HTTP-статус.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
	ErrStorage          = errors.New("storage failure")
)
