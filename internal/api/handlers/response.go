package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/markdave123-py/papernotes/internal/core"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes the structured error body.
func writeError(w http.ResponseWriter, err error) {
	status, kind := statusFor(err)
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
}

func statusFor(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "deadline_exceeded"
	}
	kind := core.KindOf(err)
	switch kind {
	case core.KindInputValidation:
		return http.StatusBadRequest, kind.String()
	case core.KindNotFound:
		return http.StatusNotFound, kind.String()
	case core.KindUpstream:
		return http.StatusBadGateway, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

// decodeJSON reads a size-limited JSON body into dst. Any decoding failure
// is an input error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return core.InputError("decode body", fmt.Errorf("body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			return core.InputError("decode body", errors.New("empty body"))
		default:
			return core.InputError("decode body", fmt.Errorf("invalid json: %w", err))
		}
	}
	return nil
}
