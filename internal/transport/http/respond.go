package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/example/salon-notify/internal/validator"
)

const maxBodyBytes = 64 * 1024

type errorBody struct {
	Error  string                 `json:"error"`
	Fields []validator.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeInvalid reports a validation failure with per-field details when
// available.
func writeInvalid(w http.ResponseWriter, err error) {
	var verr *validator.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validator.ErrInvalid.Error(), Fields: verr.Fields})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// decodeJSON reads a single JSON object from the request body. Unknown fields
// and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", validator.ErrInvalid)
		}
		return fmt.Errorf("%w: %v", validator.ErrInvalid, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single object", validator.ErrInvalid)
	}
	return nil
}
