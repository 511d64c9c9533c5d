// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/logging"
)

// Logging attaches a request-scoped logger to the context and logs one line
// per request. It expects chi's RequestID middleware to run first.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			child := logger.With().
				Str(logging.FieldRequestID, chimw.GetReqID(r.Context())).
				Str(logging.FieldMethod, r.Method).
				Str(logging.FieldPath, r.URL.Path).
				Logger()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			info := &requestInfo{}
			ctx := withRequestInfo(logging.WithLogger(r.Context(), child), info)
			next.ServeHTTP(rec, r.WithContext(ctx))

			evt := child.Info()
			if rec.status >= http.StatusInternalServerError {
				evt = child.Error()
			}
			if info.userID != "" {
				evt = evt.Str(logging.FieldUserID, info.userID)
			}
			evt.Int(logging.FieldStatus, rec.status).
				Float64(logging.FieldLatency, float64(time.Since(start).Milliseconds())).
				Msg("request completed")
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not implement http.Hijacker")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestInfo is filled in by later middleware so the access log can name
// the authenticated user.
type requestInfo struct {
	userID string
}

type infoKey struct{}

func withRequestInfo(ctx context.Context, info *requestInfo) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

func noteUser(ctx context.Context, userID string) {
	if info, ok := ctx.Value(infoKey{}).(*requestInfo); ok {
		info.userID = userID
	}
}
