package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/brieflybot/briefly/internal/collector"
	"github.com/brieflybot/briefly/internal/config"
	"github.com/brieflybot/briefly/internal/digest"
	"github.com/brieflybot/briefly/internal/handlers"
	"github.com/brieflybot/briefly/internal/rerank"
)

const version = "v1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "briefly",
		Short: "AI/ML news digest bot for Slack",
		Long:  "Briefly collects AI/ML news from NewsAPI, RSS feeds, and arXiv, ranks it, summarizes it with an LLM, and posts a daily TLDR digest to Slack.",
	}

	rootCmd.AddCommand(runCmd(), serveCmd(), sourcesCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		dryRun      bool
		force       bool
		maxArticles int
		channel     string
		provider    string
		strategy    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the digest pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			if provider != "" {
				cfg.LLMProvider = provider
			}
			if channel != "" {
				cfg.SlackChannelID = channel
			}
			if maxArticles <= 0 {
				maxArticles = cfg.MaxArticlesPerDigest
			}

			server, err := handlers.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			result, err := server.Pipeline().Run(cmd.Context(), digest.Options{
				MaxArticles: maxArticles,
				Strategy:    rerank.Strategy(strategy),
				Channel:     channel,
				DryRun:      dryRun,
				Force:       force,
			})
			if err != nil {
				return err
			}

			if result.Skipped {
				fmt.Printf("Skipped: %s\n", result.SkipReason)
				return nil
			}
			if dryRun && result.Summary != nil {
				fmt.Printf("Dry run: %d articles\n\n%s\n", result.Collected, result.Summary.TLDRText)
				return nil
			}
			fmt.Printf("Digest posted: %d articles (ts %s)\n", result.Collected, result.MessageTS)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the digest without posting to Slack")
	cmd.Flags().BoolVar(&force, "force", false, "publish even if a digest was already posted today")
	cmd.Flags().IntVar(&maxArticles, "max-articles", 0, "maximum articles in the digest (default from config)")
	cmd.Flags().StringVar(&channel, "channel", "", "Slack channel ID override")
	cmd.Flags().StringVar(&provider, "llm-provider", "", "LLM provider override (openai or gemini)")
	cmd.Flags().StringVar(&strategy, "strategy", "smart", "ranking strategy (smart, source_priority, recency)")

	return cmd
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with the digest scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}

			server, err := handlers.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			router := server.SetupRoutes()
			httpServer := &http.Server{
				Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
				Handler:      router,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Schedule the daily digest
			scheduler := cron.New()
			_, err = scheduler.AddFunc(cfg.DigestSchedule, func() {
				if _, err := server.Pipeline().Run(ctx, digest.Options{
					MaxArticles: cfg.MaxArticlesPerDigest,
				}); err != nil {
					log.Printf("❌ Scheduled digest failed: %v", err)
				}
			})
			if err != nil {
				return fmt.Errorf("invalid digest schedule %q: %w", cfg.DigestSchedule, err)
			}
			scheduler.Start()
			log.Printf("⏰ Digest scheduled: %s", cfg.DigestSchedule)

			// Setup graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				log.Printf("Starting server on %s:%s", cfg.Host, cfg.Port)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()

			<-sigChan
			log.Println("Shutting down server...")

			cancel()
			scheduler.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server shutdown error: %v", err)
			}

			log.Println("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port override")

	return cmd
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured RSS sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rssCollector *collector.RSSCollector
			if path := os.Getenv("RSS_SOURCES_FILE"); path != "" {
				c, err := collector.NewRSSFromFile(path)
				if err != nil {
					return fmt.Errorf("loading RSS sources: %w", err)
				}
				rssCollector = c
			} else {
				rssCollector = collector.NewRSS()
			}

			for _, s := range rssCollector.Sources() {
				status := "enabled"
				if !s.Enabled {
					status = "disabled"
				}
				fmt.Printf("%-30s %-20s priority %.2f  %s\n  %s\n", s.Name, s.Category, s.Priority, status, s.URL)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("briefly " + version)
		},
	}
}
