package listings

import (
	"encoding/json"
	"errors"
	"net/http"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON serializes v with the given status. Serialization failures are
// logged but cannot be reported to the client: headers are already gone.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps err onto the error taxonomy and writes it. Anything that
// is not an *APIError becomes an opaque server_error so internals never
// leak to clients.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		h.logger.Error("unexpected handler error", "error", err)
		apiErr = ErrServer()
	}
	h.writeJSON(w, apiErr.Status, errorBody{Error: errorDetail{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Field:   apiErr.Field,
	}})
}
