package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/models"
)

// Recovery turns a handler panic into a 500 whose details carry the request
// id, so a user can quote it when escalating. If the handler had already
// started its response nothing more is written. http.ErrAbortHandler is
// re-raised for net/http to handle.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			// RequestID runs inside Recovery; the id is only on the response.
			id := ww.Header().Get(RequestIDHeader)
			log.Error().
				Interface("panic", rec).
				Str("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Bool("response_started", ww.Status() != 0).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if ww.Status() != 0 {
				return
			}
			var details []string
			if id != "" {
				details = append(details, fmt.Sprintf("request_id: %s", id))
			}
			models.WriteError(ww, http.StatusInternalServerError, "internal server error", details...)
		}()
		next.ServeHTTP(ww, r)
	})
}
