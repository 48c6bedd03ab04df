package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message, errorType string) {
	writeJSON(w, status, errorResponse{Message: message, Error: errorType})
}

// classify maps an error to its status, client message and error type.
// Messages for server-side failures never include the underlying error.
func classify(err error) (int, string, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "request body too large", log.ErrorTypeValidation
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, err.Error(), log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "record not found", log.ErrorTypeNotFound
	case errors.Is(err, core.ErrDecryption):
		return http.StatusInternalServerError, "stored data could not be decrypted", log.ErrorTypeDecryption
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out", log.ErrorTypeTimeout
	case errors.Is(err, core.ErrStore):
		return http.StatusInternalServerError, "storage failure", log.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, "internal server error", log.ErrorTypeInternal
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// Client went away; nobody reads the reply.
		log.FromContext(ctx).DebugContext(ctx, "Request cancelled", log.FieldOperation, op)
		return
	}

	status, message, errorType := classify(err)
	logger := log.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, op,
			log.NewFields().WithErrorType(errorType))
	} else {
		logger.DebugContext(ctx, "Request rejected",
			log.FieldOperation, op, log.FieldErrorType, errorType, log.FieldError, err)
	}
	writeMessage(w, status, message, errorType)
}
