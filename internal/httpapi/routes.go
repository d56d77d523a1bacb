package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hiragana-drop/internal/history"
	"github.com/DoyleJ11/hiragana-drop/internal/hub"
	"github.com/DoyleJ11/hiragana-drop/internal/ws"
)

type Options struct {
	WS  ws.Options
	Log *zap.Logger
	// HistoryLimit caps GET /lobbies/{code}/history.
	HistoryLimit int
}

func SetupRoutes(h *hub.Hub, store history.Store, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.WS.Log == nil {
		opts.WS.Log = opts.Log
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(opts.Log))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, opts.WS))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Post("/lobbies", CreateLobby(h, opts.Log))
		r.Get("/lobbies/{code}", GetLobby(h))
		r.Get("/lobbies/{code}/history", LobbyHistory(h, store, opts.HistoryLimit))
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
