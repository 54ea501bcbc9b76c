// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes surfaced to API clients.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeWalletNotFound      = "WALLET_NOT_FOUND"
	CodeJobNotFound         = "JOB_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeCapacityReached     = "UNLOCK_CAPACITY_REACHED"
	CodeAlreadyUnlocked     = "ALREADY_UNLOCKED"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateJob        = "DUPLICATE_JOB"
	CodeInternal            = "INTERNAL_ERROR"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the {"error":{"code","message"}} envelope every endpoint uses.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}
