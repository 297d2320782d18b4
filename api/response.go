package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"launchpad/solprogram"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, Response{
		Success: false,
		Message: message,
	}, status)
}

// respondCommandError answers 422 with the program error code when a
// command was rejected, 500 otherwise.
func respondCommandError(w http.ResponseWriter, err error) {
	pe, ok := solprogram.AsProgramError(err)
	if !ok {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	code := pe.Code
	respondJSON(w, Response{
		Success:   false,
		Message:   err.Error(),
		ErrorCode: &code,
		ErrorName: pe.Name,
	}, http.StatusUnprocessableEntity)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// parseKey decodes a base58 field, answering 400 when it is missing or malformed.
func parseKey(w http.ResponseWriter, field, value string) (solana.PublicKey, bool) {
	if value == "" {
		respondError(w, field+" is required", http.StatusBadRequest)
		return solana.PublicKey{}, false
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		respondError(w, fmt.Sprintf("invalid %s: %v", field, err), http.StatusBadRequest)
		return solana.PublicKey{}, false
	}
	return key, true
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}
