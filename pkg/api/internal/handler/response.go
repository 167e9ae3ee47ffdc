package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/wg-dash/pkg/api/internal/model"
)

func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("failed to write response")
	}
}

func WriteError(w http.ResponseWriter, statusCode int, detail string) {
	WriteJSON(w, statusCode, &model.ErrorResponse{
		Detail: detail,
	})
}

// WriteUnauthorized answers 401 with the bearer challenge.
func WriteUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, http.StatusUnauthorized, detail)
}
