package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"agri-market/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// StatusRecorder remembers the status written through it.
type StatusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Status is the status sent so far, 0 if nothing was written.
func (w *StatusRecorder) Status() int {
	return w.status
}

// Logger attaches a request scoped child of logger to every request context,
// logs one line per completed request and turns panics into 500 responses.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logger.With().Str("request_id", requestID).Logger().WithContext(r.Context())
			reqLogger := zerolog.Ctx(ctx)
			recorder := &StatusRecorder{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.Error().
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("error", fmt.Sprintf("%v", rec)).
						Msg("panic while serving request")
					if recorder.Status() == 0 {
						utils.WriteJSON(recorder, http.StatusInternalServerError, utils.ErrorBody{Msg: "Server Error"})
					}
				}
				reqLogger.Info().
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Int("status", recorder.Status()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(recorder, r.WithContext(ctx))
		})
	}
}

// Timeout bounds the store work of every request by d.
func Timeout(d time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
