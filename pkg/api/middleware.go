package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TheGoldLab/mxgram/pkg/bridge"
	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/TheGoldLab/mxgram/pkg/storage"
	"github.com/TheGoldLab/mxgram/pkg/transport"
)

// apiKeyMiddleware validates the X-API-Key header. An empty expectedKey
// disables the check.
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expectedKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				sendError(w, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			if apiKey != expectedKey {
				sendError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sendSuccess sends a successful JSON response
func sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	response := APIResponse{
		Success: true,
		Data:    data,
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// sendError sends an error JSON response
func sendError(w http.ResponseWriter, message string, statusCode int) {
	sendErrorCode(w, message, 0, statusCode)
}

func sendErrorCode(w http.ResponseWriter, message string, code, statusCode int) {
	sendResponse(w, APIResponse{Error: message, Code: code}, statusCode)
}

func sendResponse(w http.ResponseWriter, response APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// sendFailure maps err to a status code and sends it
func sendFailure(w http.ResponseWriter, err error) {
	var ce *gram.CodecError
	switch {
	case errors.As(err, &ce):
		sendErrorCode(w, err.Error(), ce.Code, http.StatusBadRequest)
	case errors.Is(err, bridge.ErrInvalidDocument):
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrGramNotFound), errors.Is(err, transport.ErrUnknownSocket), errors.Is(err, transport.ErrClosed):
		sendError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, transport.ErrDatagramTooLarge), errors.Is(err, transport.ErrNoRemote):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		sendError(w, err.Error(), http.StatusInternalServerError)
	}
}
