package metrics

import (
	"net/http"
	"regexp"
	"time"
)

var numericSegment = regexp.MustCompile(`/(\d+)`)

// statusRecorder remembers the first status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.written {
		return
	}
	r.statusCode = code
	r.written = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Middleware counts and times every request by method, normalized path and
// status. A handler panic is answered with 500 and recorded as such.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		defer func() {
			if p := recover(); p != nil && !rec.written {
				rec.WriteHeader(http.StatusInternalServerError)
			}

			code := rec.statusCode
			if code == 0 {
				code = http.StatusOK
			}
			status := http.StatusText(code)
			if status == "" {
				status = "UNKNOWN"
			}
			path := normalizePath(r.URL.Path)

			RecordRequest(r.Method, path, status)
			RecordRequestDuration(r.Method, path, status, time.Since(start).Seconds())
		}()

		next.ServeHTTP(rec, r)
	})
}

// normalizePath replaces numeric path segments with ":id" so product and
// backup IDs do not each get their own label value.
//
//	/api/products/456/view -> /api/products/:id/view
func normalizePath(path string) string {
	return numericSegment.ReplaceAllString(path, "/:id")
}
