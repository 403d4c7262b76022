package middlewares

import "net/http"

// responseRecorder captures the status code and body size written by a handler.
type responseRecorder struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	if rec, ok := w.(*responseRecorder); ok {
		return rec
	}
	return &responseRecorder{ResponseWriter: w}
}

func (rec *responseRecorder) WriteHeader(code int) {
	if rec.statusCode == 0 {
		rec.statusCode = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(data []byte) (int, error) {
	if rec.statusCode == 0 {
		rec.statusCode = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(data)
	rec.responseSize += n
	return n, err
}

func (rec *responseRecorder) status() int {
	if rec.statusCode == 0 {
		return http.StatusOK
	}
	return rec.statusCode
}
