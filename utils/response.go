package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// WriteJSON writes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// the status is already sent, a failed write only means the client left
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Msg        string `json:"msg"`
	MessageKey string `json:"messageKey,omitempty"`
}

// WriteError answers the request with err. Server errors are logged with
// their cause and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := AsAppError(err)
	status := appErr.Kind.HTTPStatus()
	logger := zerolog.Ctx(r.Context())
	if appErr.Kind == KindServer {
		logger.Error().Err(appErr.Err).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Str("error", appErr.Message).Int("status", status).Msg("request rejected")
	}
	WriteJSON(w, status, ErrorBody{Msg: appErr.Message, MessageKey: appErr.Key})
}
