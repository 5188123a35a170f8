package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reflecto/api/internal/advisor"
	"reflecto/api/internal/analytics"
	"reflecto/api/internal/app"
	"reflecto/api/internal/chat"
	"reflecto/api/internal/config"
	"reflecto/api/internal/search"
	"reflecto/api/internal/session"
	"reflecto/api/internal/store"

	"github.com/joho/godotenv"
	chromem "github.com/philippgille/chromem-go"
	"github.com/redis/go-redis/v9"
	"github.com/tmc/langchaingo/llms/googleai"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("WARNING: unknown timezone %q, falling back to UTC", cfg.Timezone)
		loc = time.UTC
	}
	engine := analytics.NewEngine(loc)

	pgfts := search.NewPgFTS(db)
	searchService := search.NewService(nil, pgfts)
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		searchService = search.NewService(meiliClient, pgfts)
		go searchService.ReindexAllFromPG(ctx)
	}

	// Refresh tokens and chat history share one Redis connection; without
	// Redis, refresh sessions fall back to PostgreSQL and chat history to
	// process memory.
	var service *app.Service
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		log.Printf("Using Redis for refresh token storage")
		service = app.NewWithSessionStore(cfg, dataStore, session.NewRedisStoreWithClient(redisClient), engine, searchService)
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
		service = app.New(cfg, dataStore, engine, searchService)
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		wireAI(ctx, cfg, service, redisClient)
	} else {
		log.Printf("GEMINI_API_KEY not set; AI advice and chat disabled")
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Reflecto API listening on %s (env=%s)", cfg.Addr, cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// wireAI attaches the Gemini-backed advisor and chatbot pipeline. Failures
// here disable AI features but never stop the server.
func wireAI(ctx context.Context, cfg config.Config, service *app.Service, redisClient *redis.Client) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.GeminiAPIKey),
		googleai.WithDefaultModel(cfg.GeminiModel),
	)
	if err != nil {
		log.Printf("WARNING: gemini init failed, AI features disabled: %v", err)
		return
	}

	service.SetAdvisor(advisor.New(llm))

	embed := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := llm.CreateEmbedding(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}
		return vectors[0], nil
	})

	var retriever *chat.Retriever
	if strings.TrimSpace(cfg.VectorDir) != "" {
		retriever, err = chat.NewRetriever(cfg.VectorDir, embed)
		if err != nil {
			log.Printf("WARNING: vector store unavailable, chat runs without corpus: %v", err)
			retriever = nil
		}
	}

	var history chat.HistoryStore
	if redisClient != nil {
		history = chat.NewRedisHistory(redisClient)
	} else {
		history = chat.NewMemoryHistory()
	}

	service.SetChatbot(chat.NewPipeline(llm, history, retriever))
	log.Printf("AI advice and chat enabled (model=%s)", cfg.GeminiModel)
}
