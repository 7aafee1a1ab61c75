package metrics

import (
	"net/http"

	"github.com/felixge/httpsnoop"
)

// RequestMiddleware returns chi-compatible middleware that records request count
// and error count (status >= 400) in the given Metrics.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cm := httpsnoop.CaptureMetrics(next, w, r)
			m.IncRequests()
			if cm.Code >= 400 {
				m.IncErrors()
			}
		})
	}
}
