package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/FanzCEO/FanzDash-sub000/internal/crypto"
	"github.com/FanzCEO/FanzDash-sub000/internal/vault"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeVaultError maps the vault's error taxonomy onto HTTP. Integrity and
// authentication failures get their own codes so callers can tell "nothing
// here" apart from "something is wrong".
func writeVaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		writeJSONStatus(w, http.StatusNotFound, apiError{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, vault.ErrAccessDenied):
		writeJSONStatus(w, http.StatusForbidden, apiError{Error: err.Error(), Code: "access_denied"})
	case errors.Is(err, vault.ErrReasonRequired):
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: err.Error(), Code: "reason_required"})
	case errors.Is(err, vault.ErrIntegrityViolation):
		writeJSONStatus(w, http.StatusConflict, apiError{Error: err.Error(), Code: "integrity_violation"})
	case errors.Is(err, crypto.ErrAuthentication):
		writeJSONStatus(w, http.StatusConflict, apiError{Error: err.Error(), Code: "authentication_failed"})
	case errors.Is(err, crypto.ErrFormat):
		writeJSONStatus(w, http.StatusConflict, apiError{Error: err.Error(), Code: "format_error"})
	case errors.Is(err, vault.ErrUnknownDataType):
		writeJSONStatus(w, http.StatusBadRequest, apiError{Error: err.Error(), Code: "unknown_data_type"})
	default:
		writeJSONStatus(w, http.StatusInternalServerError, apiError{Error: "internal error", Code: "internal"})
	}
}
