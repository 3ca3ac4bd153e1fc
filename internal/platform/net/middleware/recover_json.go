package middleware

import (
	stdjson "encoding/json"
	stdhttp "net/http"
	"runtime/debug"
	"strings"

	perr "chatmill/internal/platform/errors"
	"chatmill/internal/platform/logger"
	pnet "chatmill/internal/platform/net"
)

// RecoverJSON converts panics into a JSON 500 and logs the stack with
// the request id
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			if v := recover(); v != nil {
				reqID := logger.RequestID(r.Context())

				raw := debug.Stack()
				stack := strings.Join(strings.Split(string(raw), "\n"), "\n\t")

				log := logger.C(r.Context())
				log.Error().
					Interface("panic", v).
					Msgf("panic recovered\n%s", stack)

				status, body := pnet.Error(perr.PanicErrf("panic recovered"), reqID)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(status)
				_ = stdjson.NewEncoder(w).Encode(body)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
