package http

import (
	"encoding/json"
	stdhttp "net/http"

	"chatmill/internal/platform/logger"
	pnet "chatmill/internal/platform/net"
)

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope with data
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	status, body := pnet.OK(data, logger.RequestID(r.Context()))
	JSON(w, status, body)
}

// RespondError maps a project error into an envelope and writes it
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, body := pnet.Error(err, logger.RequestID(r.Context()))
	JSON(w, status, body)
}
