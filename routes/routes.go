package routes

import (
	"github.com/Transcendigos/tscd-main-sub000/handlers"
	"github.com/Transcendigos/tscd-main-sub000/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogoHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", matchHandler.CreateHandler)
		r.Post("/quickplay", matchHandler.QuickPlayHandler)
		r.Delete("/quickplay", matchHandler.CancelQuickPlayHandler)
		r.Post("/{matchID}/start", matchHandler.StartTournamentMatchHandler)
		r.Delete("/sessions/{sessionID}", matchHandler.AbortHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/history", matchHandler.HistoryHandler)
		r.Get("/ws/matches/{sessionID}", webSocketHandler.ServeMatch)
	})

	// Bracket feeds are public, read-only.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeTournament)
}
