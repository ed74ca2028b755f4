package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/bonfireapp/bonfire-backend/internal/config"
	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/bonfireapp/bonfire-backend/internal/handlers"
	"github.com/bonfireapp/bonfire-backend/internal/middleware"
	"github.com/bonfireapp/bonfire-backend/internal/routes"
	"github.com/bonfireapp/bonfire-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// The HMAC master key derives every join code; without it no bonfire can
	// be joined, so refuse to start.
	if err := services.SetMasterKey(cfg.SecretMasterKey); err != nil {
		log.Fatal("BONFIRE_SECRET_KEY must be set. Generate one with: openssl rand -base64 32")
	}
	log.Println("✅ Secret master key configured")

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Ensure MongoDB indexes for chat history
	if err := services.EnsureChatIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB chat indexes: %v", err)
	} else {
		log.Println("✅ MongoDB chat indexes ensured")
	}

	// Initialize Cloudinary service
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Image uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Image uploads will not be available")
	}

	// Discovery pipeline: debounced location samples, nearby search, one
	// notification per (user, bonfire)
	services.InitDiscovery(cfg.LocationMinDistance, cfg.LocationMaxInterval, cfg.DiscoveryRadiusMeters)
	log.Printf("✅ Discovery started (radius %.0fm, debounce %.0fm/%s)",
		cfg.DiscoveryRadiusMeters, cfg.LocationMinDistance, cfg.LocationMaxInterval)

	// Bridge Redis Pub/Sub into the in-process hub so events reach WebSocket
	// clients on every instance
	services.StartRedisChatSubscriber(context.Background())
	log.Println("✅ Redis chat subscriber started")

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Redis-backed per-IP rate limit on everything below
	r.Use(middleware.RateLimitMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	log.Printf("🚀 Bonfire backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
