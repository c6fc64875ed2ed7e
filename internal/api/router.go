package api

import (
	"net/http"

	"github.com/dom/league-inhouse-server/internal/api/handlers"
	"github.com/dom/league-inhouse-server/internal/api/middleware"
	"github.com/dom/league-inhouse-server/internal/service"
	"github.com/dom/league-inhouse-server/internal/ws"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	matchHandler := handlers.NewMatchHandler(services.Draft, services.Game, services.Vote)
	queueHandler := handlers.NewQueueHandler(services.Queue, services.Restore, services.Draft)
	championHandler := handlers.NewChampionHandler(services.Champion)
	settingsHandler := handlers.NewSettingsHandler(services.SpecialUsers)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Route("/match", func(r chi.Router) {
		r.Post("/draft-action", matchHandler.DraftAction)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/change-pick", matchHandler.ChangePick)
			r.Post("/confirm-final-draft", matchHandler.Confirm)
			r.Post("/vote", matchHandler.Vote)
			r.Get("/votes", matchHandler.Votes)
			r.Delete("/vote", matchHandler.RetractVote)
			r.Post("/cancel", matchHandler.Cancel)
		})
	})

	r.Route("/queue", func(r chi.Router) {
		r.Post("/join", queueHandler.Join)
		r.Post("/leave", queueHandler.Leave)
		r.Get("/status", queueHandler.Status)
		r.Get("/my-active-match", queueHandler.MyActiveMatch)
	})

	r.Route("/champions", func(r chi.Router) {
		r.Get("/", championHandler.GetAll)
		r.Post("/sync", championHandler.Sync)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/special-users", settingsHandler.GetSpecialUsers)
		r.Put("/special-users", settingsHandler.PutSpecialUsers)
	})

	// Test hook; creates an in_progress match from a supplied payload.
	r.Post("/debug/simulate-last-match", matchHandler.Simulate)

	// WebSocket endpoint
	r.Get("/ws", wsHandler.Handle)

	return r
}
