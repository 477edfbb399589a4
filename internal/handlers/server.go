package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/brieflybot/briefly/internal/aggregate"
	"github.com/brieflybot/briefly/internal/cache"
	"github.com/brieflybot/briefly/internal/collector"
	"github.com/brieflybot/briefly/internal/config"
	"github.com/brieflybot/briefly/internal/digest"
	"github.com/brieflybot/briefly/internal/rerank"
	"github.com/brieflybot/briefly/internal/slack"
	"github.com/brieflybot/briefly/internal/store"
	"github.com/brieflybot/briefly/internal/summarizer"
)

// Server holds the HTTP server and its dependencies
type Server struct {
	config      *config.Config
	aggregator  *aggregate.Aggregator
	reranker    *rerank.Reranker
	pipeline    *digest.Pipeline
	history     cache.Store
	slackClient *slack.Client
}

// NewServer creates a new HTTP server with the full pipeline wired up
func NewServer(cfg *config.Config) (*Server, error) {
	rssCollector, err := buildRSSCollector(cfg)
	if err != nil {
		return nil, err
	}

	aggregator := aggregate.New(
		collector.NewNewsAPI(cfg.NewsAPIKey),
		rssCollector,
		collector.NewArxiv(),
	)

	reranker := rerank.New(rerank.DefaultConfig())

	openai := summarizer.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	gemini := summarizer.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	var summ *summarizer.Summarizer
	if cfg.LLMProvider == "gemini" {
		summ = summarizer.New(gemini, openai)
	} else {
		summ = summarizer.New(openai, gemini)
	}

	slackClient := slack.NewClient(cfg.SlackBotToken, cfg.SlackChannelID)

	history, err := cache.NewStore(context.Background(), cfg.CacheType, cfg.CacheBucket)
	if err != nil {
		return nil, fmt.Errorf("creating digest history store: %w", err)
	}

	var archive *store.Store
	if cfg.DatabasePath != "" {
		archive, err = store.Open(cfg.DatabasePath)
		if err != nil {
			log.Printf("⚠️ Failed to open archive database: %v", err)
			archive = nil
		}
	}

	pipeline := digest.New(aggregator, reranker, summ, slackClient, history, archive, cfg.SlackChannelID)

	return &Server{
		config:      cfg,
		aggregator:  aggregator,
		reranker:    reranker,
		pipeline:    pipeline,
		history:     history,
		slackClient: slackClient,
	}, nil
}

func buildRSSCollector(cfg *config.Config) (*collector.RSSCollector, error) {
	if cfg.RSSSourcesFile == "" {
		return collector.NewRSS(), nil
	}

	c, err := collector.NewRSSFromFile(cfg.RSSSourcesFile)
	if err != nil {
		return nil, fmt.Errorf("loading RSS sources: %w", err)
	}
	return c, nil
}

// Pipeline exposes the digest pipeline for the scheduler
func (s *Server) Pipeline() *digest.Pipeline {
	return s.pipeline
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.corsMiddleware)
	api.Use(s.loggingMiddleware)

	// Health check
	api.HandleFunc("/health", s.healthHandler).Methods("GET")

	// Collection operations
	api.HandleFunc("/collect", s.collectHandler).Methods("POST")
	api.HandleFunc("/collectors", s.collectorsHandler).Methods("GET")

	// Digest operations
	api.HandleFunc("/digest/run", s.digestRunHandler).Methods("POST")
	api.HandleFunc("/digest/history", s.digestHistoryHandler).Methods("GET")

	// Ranking preview
	api.HandleFunc("/rerank", s.rerankHandler).Methods("POST")

	// History store operations
	api.HandleFunc("/history/stats", s.historyStatsHandler).Methods("GET")
	api.HandleFunc("/history/clear", s.historyClearHandler).Methods("DELETE")

	// Slack operations
	api.HandleFunc("/slack/notify", s.notifySlackHandler).Methods("POST")

	// Status and configuration
	api.HandleFunc("/status", s.statusHandler).Methods("GET")
	api.HandleFunc("/config", s.configHandler).Methods("GET")

	return r
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   "v1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
