package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nivara-app/nivara-backend/internal/config"
	"github.com/nivara-app/nivara-backend/internal/handlers"
	"github.com/nivara-app/nivara-backend/internal/middleware"
	"github.com/nivara-app/nivara-backend/internal/routes"
	"github.com/nivara-app/nivara-backend/internal/services"
	"github.com/nivara-app/nivara-backend/internal/storage"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Pick the storage backend
	var store storage.Store
	var redisClient *redis.Client

	switch cfg.StorageBackend {
	case config.BackendRedis:
		log.Printf("Connecting to Redis...")
		redisStore, client, err := storage.ConnectRedis(cfg.RedisURI)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer redisStore.Close()
		store = redisStore
		redisClient = client
		log.Println("✅ Connected to Redis")

	case config.BackendPostgres:
		log.Printf("Connecting to PostgreSQL...")
		pgStore, err := storage.ConnectPostgres(cfg.PostgresURI)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL:", err)
		}
		defer pgStore.Close()
		store = pgStore
		log.Println("✅ Connected to PostgreSQL")

		// Expired session rows pile up without a sweeper.
		go func() {
			for range time.Tick(time.Hour) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := pgStore.ExpireSweep(ctx); err != nil {
					log.Printf("kv expire sweep failed: %v", err)
				}
				cancel()
			}
		}()

	default:
		log.Println("⚠️  Using in-memory storage; data will not survive a restart")
		store = storage.NewMemoryStore()
	}

	// Core services
	sessions := services.NewSessionService(store)
	accounts := services.NewAccountService(store, sessions)
	health := services.NewHealthService(store)
	gate := services.NewGate(health)

	// Assistant proxy
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  WARNING: GEMINI_API_KEY not set. The assistant will return errors.")
	}
	generator := services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	// Conversation history (optional: needs Mongo)
	var history services.ConversationStore
	if cfg.MongoURI != "" {
		log.Printf("Connecting to MongoDB...")
		mongoClient, mongoDB, err := storage.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(ctx)
		}()
		log.Println("✅ Connected to MongoDB")

		mongoStore := services.NewMongoConversationStore(mongoDB)
		if err := mongoStore.EnsureIndexes(context.Background()); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure MongoDB chat indexes: %v", err)
		} else {
			log.Println("✅ MongoDB chat indexes ensured")
		}
		history = mongoStore
	} else {
		log.Println("Warning: MONGODB_URI not set. Conversation history will not be persisted.")
	}

	chat := services.NewChatService(generator, history, services.NewChatCache(redisClient))

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never fails
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.TrustProxy) {
			r.Use(mw)
		}
		r.Use(middleware.RedisRateLimit(redisClient, cfg.TrustProxy))
		log.Println("✅ Production security enabled (security headers, per-IP rate limiting)")
	} else if redisClient != nil {
		r.Use(middleware.RedisRateLimit(redisClient, cfg.TrustProxy))
	}

	// Liveness check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, routes.Handlers{
		Auth:      handlers.NewAuthHandler(accounts),
		Health:    handlers.NewHealthHandler(health, gate, sessions),
		Chat:      handlers.NewChatHandler(chat, sessions),
		Assistant: handlers.NewAssistantWS(chat, sessions),
	})

	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/signup")
	log.Println("  POST /api/auth/signin")
	log.Println("  POST /api/auth/signout")
	log.Println("  GET  /api/auth/me")
	log.Println("  POST /api/health")
	log.Println("  GET  /api/health")
	log.Println("  GET  /api/health/today")
	log.Println("  GET  /api/health/status")
	log.Println("  GET  /api/health/summary")
	log.Println("  POST /api/ai")
	log.Println("  GET  /api/ai")
	log.Println("  GET  /api/chat/conversations")
	log.Println("  GET  /api/chat/history")
	log.Println("  DELETE /api/chat/conversations")
	log.Println("  GET  /ws/assistant")

	log.Printf("🚀 Nivara backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
