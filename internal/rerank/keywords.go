package rerank

// relevanceKeywords maps lowercase substrings to relevance weights.
// Matching is plain substring containment over title+summary+category;
// the highest matching weight wins.
var relevanceKeywords = map[string]float64{
	// Core AI/ML terms
	"artificial intelligence": 1.0,
	"ai":                      1.0,
	"machine learning":        1.0,
	"ml":                      1.0,
	"deep learning":           1.0,
	"neural network":          1.0,
	"transformer":             1.0,
	"gpt":                     1.0,
	"llm":                     1.0,
	"large language model":    1.0,

	// Agentic systems
	"agentic":             1.0,
	"autonomous agent":    1.0,
	"multi-agent":         1.0,
	"agent-based":         1.0,
	"intelligent agent":   1.0,
	"autonomous system":   1.0,
	"agent framework":     1.0,
	"agent orchestration": 1.0,

	// Retrieval augmented generation
	"rag":                           1.0,
	"retrieval augmented generation": 1.0,
	"retrieval-augmented":           1.0,
	"vector database":               1.0,
	"vector search":                 1.0,
	"embedding":                     1.0,
	"semantic search":               1.0,
	"knowledge base":                1.0,
	"document retrieval":            1.0,
	"context window":                1.0,

	// Frameworks and vendors
	"langchain":    1.0,
	"lang chain":   1.0,
	"llama index":  1.0,
	"haystack":     1.0,
	"transformers": 1.0,
	"hugging face": 1.0,
	"openai":       1.0,
	"anthropic":    1.0,
	"claude":       1.0,
	"gemini":       1.0,

	// Software development
	"software development": 0.95,
	"programming":          0.95,
	"coding":               0.95,
	"api":                  0.9,
	"rest api":             0.9,
	"graphql":              0.9,
	"microservices":        0.9,
	"docker":               0.85,
	"kubernetes":           0.85,
	"devops":               0.85,
	"ci/cd":                0.85,
	"cloud computing":      0.85,
	"aws":                  0.85,
	"azure":                0.85,
	"gcp":                  0.85,
	"python":               0.9,
	"javascript":           0.9,
	"typescript":           0.9,
	"java":                 0.85,
	"go":                   0.85,
	"rust":                 0.85,
	"sql":                  0.9,
	"nosql":                0.85,
	"mongodb":              0.85,
	"postgresql":           0.85,
	"redis":                0.85,

	// Applied ML
	"reinforcement learning":      0.95,
	"computer vision":             0.95,
	"natural language processing": 0.95,
	"nlp":                         0.95,
	"robotics":                    0.95,
	"automation":                  0.9,
	"optimization":                0.9,
	"scalability":                 0.9,
	"performance":                 0.9,
	"model training":              0.95,
	"inference":                   0.9,
	"deployment":                  0.9,
	"mlops":                       0.9,
	"model serving":               0.9,
	"a/b testing":                 0.85,

	// Data
	"data science":          0.95,
	"data engineering":      0.9,
	"etl":                   0.85,
	"data pipeline":         0.9,
	"data warehouse":        0.85,
	"data lake":             0.85,
	"analytics":             0.9,
	"business intelligence": 0.85,
	"dashboard":             0.8,

	// Industry
	"startup":         0.8,
	"venture capital": 0.8,
	"investment":      0.8,
	"innovation":      0.85,

	// Research
	"research":    0.9,
	"academic":    0.9,
	"paper":       0.9,
	"conference":  0.85,
	"workshop":    0.85,
	"competition": 0.8,
	"hackathon":   0.85,
	"open source": 0.9,
	"github":      0.85,
}
