package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/logging"
)

// envelope wraps every response body.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := envelope{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", zap.Int("status", status), zap.Error(err))
	}
}

// respondError maps err onto a status and writes the failure envelope. Internal
// details are logged, never serialized.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	logger := logging.FromContext(ctx)

	message := apperr.Message(err)
	if kind == apperr.KindInternal {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.Int("status", status), zap.String("reason", message))
	}
	respondJSON(ctx, w, status, nil, message)
}
