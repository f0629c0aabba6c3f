package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/capperchat/pkg/logger"
	"github.com/okian/capperchat/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class per
// endpoint label.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		code := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))

		if class, severity, failed := classifyStatus(sw.status); failed {
			metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
			metrics.RecordErrorByType(class, severity)
		}
	}
}

// RecoverMiddleware turns a handler panic into the generic 500 body.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func RecoverMiddleware(next http.HandlerFunc, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(rec)
			}
			log.Error(r.Context(), "handler panic",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("panic", fmt.Sprint(rec)))
			writeInternal(w)
		}()
		next.ServeHTTP(w, r)
	}
}

// classifyStatus maps an error status to its metric class and severity.
func classifyStatus(status int) (class, severity string, failed bool) {
	switch {
	case status < http.StatusBadRequest:
		return "", "", false
	case status == http.StatusServiceUnavailable:
		return "unavailable", "high", true
	case status >= http.StatusInternalServerError:
		return "server_error", "high", true
	case status == http.StatusRequestEntityTooLarge:
		return "too_large", "medium", true
	case status == http.StatusNotFound:
		return "not_found", "low", true
	default:
		return "client_error", "medium", true
	}
}

// statusWriter remembers the status code a handler wrote.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	return sw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }
