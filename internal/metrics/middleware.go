package metrics

import (
	"net/http"
	"time"
)

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// HTTPMiddleware counts and times requests. Requests are labelled with the
// ServeMux pattern that matched them, so /api/v1/backtests/{id} is one series
// however many jobs exist.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			reg.RecordRequest(r.Method, route(r), rec.status, time.Since(start).Seconds())
		})
	}
}

// route is "unmatched" when no pattern served the request, e.g. a 404 or a
// request rejected before routing
func route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}
