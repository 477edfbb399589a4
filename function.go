package cloudfunctions

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/brieflybot/briefly/internal/config"
	"github.com/brieflybot/briefly/internal/digest"
	"github.com/brieflybot/briefly/internal/handlers"
)

func init() {
	// Register HTTP function for Cloud Scheduler triggers and manual runs
	functions.HTTP("RunDigest", RunDigest)
}

// RunDigest is the HTTP function that triggers the daily digest
// pipeline. Cloud Scheduler posts here once a day; the pipeline's
// history guard makes retries safe.
func RunDigest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.URL.Path {
	case "/health":
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})

	case "/", "/digest":
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Load configuration
		cfg, err := config.Load()
		if err != nil {
			log.Printf("Failed to load configuration: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// Check Bearer token authentication
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if cfg.WebhookAuthToken != "" && token != cfg.WebhookAuthToken {
			http.Error(w, "Invalid token", http.StatusForbidden)
			return
		}

		// Create server instance
		server, err := handlers.NewServer(cfg)
		if err != nil {
			log.Printf("Failed to create server: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		opts := digest.Options{
			MaxArticles: cfg.MaxArticlesPerDigest,
			DryRun:      r.URL.Query().Get("dry_run") == "true",
			Force:       r.URL.Query().Get("force") == "true",
		}

		log.Printf("🕐 Digest triggered via HTTP (dry_run=%t force=%t)", opts.DryRun, opts.Force)
		result, err := server.Pipeline().Run(ctx, opts)
		if err != nil {
			log.Printf("❌ Digest run failed: %v", err)
			http.Error(w, "Digest run failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)

	default:
		http.NotFound(w, r)
	}
}
