package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/brieflybot/briefly/internal/digest"
	"github.com/brieflybot/briefly/internal/model"
	"github.com/brieflybot/briefly/internal/rerank"
)

// collectHandler collects articles from all sources without publishing
func (s *Server) collectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	maxArticles := s.config.MaxArticlesPerDigest
	if v := r.URL.Query().Get("max_articles"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxArticles = n
		}
	}

	articles := s.aggregator.CollectPrioritized(ctx, maxArticles)

	response := map[string]interface{}{
		"articles": articles,
		"count":    len(articles),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// collectorsHandler returns per-collector status and run statistics
func (s *Server) collectorsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"collectors": s.aggregator.Status(),
		"healthy":    s.aggregator.Healthy(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// digestRunHandler triggers a digest pipeline run
func (s *Server) digestRunHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts := digest.Options{
		MaxArticles: s.config.MaxArticlesPerDigest,
		DryRun:      r.URL.Query().Get("dry_run") == "true",
		Force:       r.URL.Query().Get("force") == "true",
	}
	if v := r.URL.Query().Get("strategy"); v != "" {
		opts.Strategy = rerank.Strategy(v)
	}

	result, err := s.pipeline.Run(ctx, opts)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error running digest: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// digestHistoryHandler lists recorded digest runs
func (s *Server) digestHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := s.history.List(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error listing digest history: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"digests": records,
		"count":   len(records),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// rerankHandler ranks a posted list of articles and returns them with
// a ranking summary
func (s *Server) rerankHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Articles []model.Article `json:"articles"`
		Strategy string          `json:"strategy"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	strategy := rerank.Strategy(req.Strategy)
	if strategy == "" {
		strategy = rerank.StrategySmart
	}

	ranked := s.reranker.Rerank(req.Articles, strategy)

	response := map[string]interface{}{
		"articles": ranked,
		"summary":  s.reranker.Summarize(ranked),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// historyStatsHandler returns digest history statistics
func (s *Server) historyStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.history.GetStats(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error getting history stats: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// historyClearHandler clears the digest history
func (s *Server) historyClearHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.history.Clear(ctx); err != nil {
		http.Error(w, fmt.Sprintf("Error clearing history: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]string{
		"status":  "success",
		"message": "Digest history cleared successfully",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// notifySlackHandler sends a plain notification to Slack
func (s *Server) notifySlackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.slackClient.SendSimpleMessage(ctx, req.Message); err != nil {
		http.Error(w, fmt.Sprintf("Error sending Slack message: %v", err), http.StatusInternalServerError)
		return
	}

	response := map[string]string{
		"status":  "success",
		"message": "Slack notification sent",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// statusHandler returns system status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	historyStats, _ := s.history.GetStats(ctx)

	response := map[string]interface{}{
		"status":     "running",
		"version":    "v1.0.0",
		"collectors": s.aggregator.Status(),
		"healthy":    s.aggregator.Healthy(),
		"history":    historyStats,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// configHandler returns configuration (sanitized)
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	// Return sanitized configuration without sensitive data
	response := map[string]interface{}{
		"port":                    s.config.Port,
		"host":                    s.config.Host,
		"llm_provider":            s.config.LLMProvider,
		"openai_model":            s.config.OpenAIModel,
		"gemini_model":            s.config.GeminiModel,
		"slack_channel_id":        s.config.SlackChannelID,
		"max_articles_per_source": s.config.MaxArticlesPerSource,
		"max_articles_per_digest": s.config.MaxArticlesPerDigest,
		"digest_schedule":         s.config.DigestSchedule,
		"cache_type":              s.config.CacheType,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
