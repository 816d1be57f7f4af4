package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewHTTPHandler returns the read only API spectators use to find games.
//
//	GET /healthz     liveness
//	GET /games       games in progress
//	GET /games/{id}  a game with the latest snapshot of each player
func NewHTTPHandler(t *TetrisServer, l *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog(l))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/games", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, l, http.StatusOK, t.Games())
	})
	r.Get("/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		g, ok := t.Game(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		writeJSON(w, l, http.StatusOK, g)
	})
	return r
}

func writeJSON(w http.ResponseWriter, l *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Error("unable to write response", slog.String("error", err.Error()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// accessLog logs one line per request.
func accessLog(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			l.LogAttrs(r.Context(), slog.LevelDebug, "http.access",
				slog.Int("status", rw.status),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Duration("latency", time.Since(start)),
			)
		})
	}
}
