package routes

import (
	"github.com/bonfireapp/bonfire-backend/internal/handlers"
	"github.com/bonfireapp/bonfire-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)

	// Bonfire lifecycle routes
	r.Post("/api/bonfires", handlers.CreateBonfire)
	r.Get("/api/bonfires", handlers.GetBonfire)
	r.Delete("/api/bonfires", handlers.EndBonfire)
	r.Delete("/api/bonfires/member", handlers.LeaveBonfire)
	r.Get("/api/bonfires/nearby", handlers.FindNearby)

	// Proximity-gated secret fetch (the code shown to people at the spot)
	r.Get("/api/bonfires/secret", handlers.FetchSecret)

	// Join validation gets its own tighter per-IP limiter on top of the
	// global one: it is the brute-force surface.
	r.With(middleware.JoinRateLimit).Post("/api/bonfires/join", handlers.JoinBonfire)

	// Presence heartbeat for clients without an open WebSocket
	r.Post("/api/bonfires/presence", handlers.Presence)

	// Location reports feeding discovery
	r.Post("/api/location", handlers.ReportLocation)

	// Realtime chat API (MongoDB history + Redis Pub/Sub)
	r.Get("/api/chat/history", handlers.LoadChatHistory)

	// Image upload for chat messages
	r.Post("/api/upload", handlers.UploadImage)

	// WebSocket endpoint for the realtime session view
	r.Get("/ws/chat", handlers.ChatWebSocket)
}
