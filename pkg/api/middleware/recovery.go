package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/logger"
)

// Recovery returns a middleware that turns panics into 500 responses. The
// stack trace is included in the body only when exposeStack is set.
func Recovery(log logger.Logger, exposeStack bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rv := recover()
				if rv == nil {
					return
				}
				if rv == http.ErrAbortHandler {
					panic(rv)
				}

				stack := debug.Stack()
				requestID := GetRequestID(r.Context())
				log.ErrorContext(r.Context(), "Panic recovered",
					"error", rv,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"stack", string(stack),
				)

				resp := response.NewError(http.StatusInternalServerError,
					fmt.Sprintf("Internal server error: %v", rv), requestID)
				if exposeStack {
					resp.Stack = string(stack)
				}
				response.JSON(w, http.StatusInternalServerError, resp)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
