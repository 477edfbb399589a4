package rerank

// Config holds the scoring weights. Zero values are never used
// directly; construct with DefaultConfig and override fields.
type Config struct {
	NewsAPIWeight       float64 `json:"newsapi_weight"`
	RSSWeight           float64 `json:"rss_weight"`
	ArxivWeight         float64 `json:"arxiv_weight"`
	RecencyWeight       float64 `json:"recency_weight"`
	MaxAgeHours         float64 `json:"max_age_hours"`
	TitleLengthWeight   float64 `json:"title_length_weight"`
	SummaryLengthWeight float64 `json:"summary_length_weight"`
	RelevanceWeight     float64 `json:"ai_ml_relevance_weight"`
	// AgenticWeight is carried in the config surface for tuning
	// compatibility; agentic terms score through the keyword table.
	AgenticWeight   float64            `json:"agentic_systems_weight"`
	CategoryWeights map[string]float64 `json:"category_weights"`
}

// DefaultConfig returns the production scoring weights
func DefaultConfig() Config {
	return Config{
		NewsAPIWeight:       1.0,
		RSSWeight:           0.8,
		ArxivWeight:         0.6,
		RecencyWeight:       0.3,
		MaxAgeHours:         72,
		TitleLengthWeight:   0.1,
		SummaryLengthWeight: 0.1,
		RelevanceWeight:     0.4,
		AgenticWeight:       0.5,
		CategoryWeights:     defaultCategoryWeights(),
	}
}

func defaultCategoryWeights() map[string]float64 {
	return map[string]float64{
		"AI/ML Technology":         1.0,
		"AI/ML Development":        1.0,
		"AI Research & Development": 1.0,
		"AI Business & Technology": 0.95,
		"AI Technology":            0.95,
		"AI Industry News":         0.95,
		"AI Research & Industry":   0.95,
		"AI Research & Tools":      0.9,
		"Technology & AI":          0.9,
		"Technology & Innovation":  0.85,
		"Computer Vision":          0.9,
		"Natural Language Processing": 0.9,
		"Robotics":                 0.9,
		"Machine Learning":         1.0,
		"Deep Learning":            1.0,
		"Neural Networks":          1.0,
		"Transformer Models":       1.0,
		"Large Language Models":    1.0,
		"Agentic Systems":          1.0,
		"Autonomous Agents":        1.0,
		"Multi-Agent Systems":      1.0,
		"technology":               0.8,
		"business":                 0.75,
		"science":                  0.7,
		"health":                   0.6,
		"Research Papers":          0.65,
	}
}
