package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookstore/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON and callback request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	writeErrorResponse(w, r, status, model.ErrorResponse{Error: code, Message: message}, logger)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp model.ErrorResponse, logger zerolog.Logger) {
	resp.CorrelationID = chimw.GetReqID(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", resp.Error).
		Int("status", status).
		Str("request_id", resp.CorrelationID).
		Msg("handler error")

	writeJSON(w, status, resp)
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindAuthenticity:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err through the envelope. Only the safe message
// of a DomainError reaches the client; wrapped causes are logged.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, orderID int64, logger zerolog.Logger) {
	resp := model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "internal server error",
		OrderID: orderID,
	}

	var de *model.DomainError
	if errors.As(err, &de) {
		resp.Error = de.Code
		resp.Message = de.Message
		if de.Kind == model.KindGateway {
			resp.Message = "payment initiation failed, please try again"
		}
	}

	logger.Debug().Err(err).Msg("request failed")
	writeErrorResponse(w, r, statusFor(model.KindOf(err)), resp, logger)
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// idParam parses a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
