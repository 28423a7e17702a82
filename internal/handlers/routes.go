package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router mounts the session API, the page and the healthcheck
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Get("/", h.HandleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", h.HandleDecks)

		r.Get("/sessions", h.HandleListSessions)
		r.Post("/sessions", h.HandleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Delete("/", h.HandleDeleteSession)
			r.Put("/settings", h.HandleSettings)
			r.Put("/text", h.HandleText)
			r.Post("/files", h.HandleAddFiles)
			r.Delete("/files/{index}", h.HandleRemoveFile)
			r.Post("/paste", h.HandlePaste)
			r.Post("/submit", h.HandleSubmit)
			r.Post("/review/{index}/toggle", h.HandleToggle)
			r.Put("/review/{index}", h.HandleEdit)
			r.Post("/confirm", h.HandleConfirm)
			r.Post("/cancel", h.HandleCancel)
			r.Post("/clear", h.HandleClear)
			r.Post("/notice/dismiss", h.HandleDismissNotice)
			r.Get("/transcript", h.HandleTranscript)

			r.Get("/redcards", h.HandleFetchRedCards)
			r.Delete("/redcards", h.HandleCancelRedCards)
			r.Post("/redcards/{card}/{suggestion}/toggle", h.HandleToggleSuggestion)
			r.Post("/redcards/submit", h.HandleSubmitRedCards)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("Request handled",
			"req_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
