package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sipico/catalog-backend/internal/logging"
)

// HTTPLogging dumps every request and response at debug level, with
// credentials masked in headers and the JSON fields named in secretFields
// redacted from bodies. A nil secretFields logs bodies unchanged.
//
// At any level above debug it adds nothing to the request path.
func HTTPLogging(logger *slog.Logger, secretFields []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logger.Enabled(r.Context(), slog.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}

			var reqBody []byte
			if r.Body != nil {
				var err error
				if reqBody, err = io.ReadAll(r.Body); err != nil {
					// The handler still gets what was read so it can report
					// the failure itself (413 for an oversized body).
					logger.Debug("Failed to read request body", "error", err)
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), errReader{err}))
			}

			id := GetRequestID(r.Context())
			logger.Debug("HTTP Request",
				"request_id", id,
				"method", r.Method,
				"url", r.URL.Path,
				"query_params", r.URL.RawQuery,
				"headers", maskHeaders(r.Header),
				"body", maskBody(reqBody, secretFields),
			)

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			logger.Debug("HTTP Response",
				"request_id", id,
				"method", r.Method,
				"url", r.URL.Path,
				"status_code", rec.statusCode,
				"headers", maskHeaders(rec.Header()),
				"body", maskBody(rec.body.Bytes(), secretFields),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// errReader replays a body read error after the buffered bytes; a nil err
// reads as EOF.
type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	return 0, io.EOF
}

func maskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = logging.MaskHeader(k, v[0])
		}
	}
	return out
}

func maskBody(body []byte, secretFields []string) string {
	switch {
	case len(body) == 0:
		return ""
	case !utf8.Valid(body):
		return logging.FormatBinaryData(body)
	}
	return logging.TruncateBody(string(logging.MaskJSONFields(body, secretFields)))
}

// responseRecorder tees the response body so it can be logged.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
