package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Embedding configuration (OpenAI-compatible protocol)
	// All providers (openai, siliconflow, ollama, openrouter) use the same config
	EmbeddingProvider string // Provider identifier: openai, siliconflow, ollama, openrouter
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string // Optional, has default per provider
	EmbeddingModel    string // e.g. sentence-transformers/all-MiniLM-L6-v2

	// Optional LLM configuration for icebreaker enrichment.
	// The matching pipeline never requires it; templates are the fallback.
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Matching tunables. Defaults mirror the shipped behavior; exposed as
	// configuration so deployments can tune ranking without code changes.
	MMRLambda         float64 // relevance/diversity trade-off in [0,1]
	ConflictThreshold float64 // semantic conflict similarity threshold
	RetrieveTopK      int     // nearest-neighbor pool size
	MatchTopN         int     // final recommendations per request

	Mode    string
	Addr    string
	Data    string
	Driver  string
	DSN     string
	Version string
	Port    int
}

const (
	// EmbeddingDimensions is the fixed vector dimensionality.
	// all-MiniLM-L6-v2 class models produce 384-dimensional vectors.
	EmbeddingDimensions = 384

	DefaultMMRLambda         = 0.7
	DefaultConflictThreshold = 0.4
	DefaultRetrieveTopK      = 20
	DefaultMatchTopN         = 3
)

// Provider default base URLs for embedding providers.
// Used when AMITY_EMBEDDING_BASE_URL is not explicitly set.
var embeddingProviderDefaults = map[string]string{
	"openai":      "https://api.openai.com/v1",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if the optional icebreaker LLM is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != "" && p.LLMModel != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.EmbeddingProvider = getEnvOrDefault("AMITY_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingAPIKey = getEnvOrDefault("AMITY_EMBEDDING_API_KEY", "")
	p.EmbeddingBaseURL = getEnvOrDefault("AMITY_EMBEDDING_BASE_URL", "")
	p.EmbeddingModel = getEnvOrDefault("AMITY_EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2")

	p.LLMAPIKey = getEnvOrDefault("AMITY_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("AMITY_LLM_BASE_URL", "https://openrouter.ai/api/v1")
	p.LLMModel = getEnvOrDefault("AMITY_LLM_MODEL", "")

	p.MMRLambda = getEnvOrDefaultFloat("AMITY_MATCH_MMR_LAMBDA", DefaultMMRLambda)
	p.ConflictThreshold = getEnvOrDefaultFloat("AMITY_MATCH_CONFLICT_THRESHOLD", DefaultConflictThreshold)
	p.RetrieveTopK = getEnvOrDefaultInt("AMITY_MATCH_RETRIEVE_TOP_K", DefaultRetrieveTopK)
	p.MatchTopN = getEnvOrDefaultInt("AMITY_MATCH_TOP_N", DefaultMatchTopN)

	if p.EmbeddingBaseURL == "" {
		if baseURL, ok := embeddingProviderDefaults[p.EmbeddingProvider]; ok {
			p.EmbeddingBaseURL = baseURL
		}
	}
}

// Validate checks the profile and fills derived defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/amity"
	}

	if p.Data == "" {
		p.Data = "."
	}
	absData, err := filepath.Abs(p.Data)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve data directory %q", p.Data)
	}
	p.Data = absData

	dataDir, err := os.Stat(p.Data)
	if err != nil || !dataDir.IsDir() {
		return errors.Errorf("data directory %q does not exist", p.Data)
	}

	switch p.Driver {
	case "jsonfile", "":
		p.Driver = "jsonfile"
		if p.DSN == "" {
			p.DSN = filepath.Join(p.Data, "amity.json")
		}
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(p.Data, "amity_"+p.Mode+".db")
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for postgres driver")
		}
	default:
		return errors.Errorf("unsupported driver %q", p.Driver)
	}

	if p.MMRLambda < 0 || p.MMRLambda > 1 {
		return errors.Errorf("mmr lambda %v out of range [0,1]", p.MMRLambda)
	}
	if p.ConflictThreshold < 0 || p.ConflictThreshold > 1 {
		return errors.Errorf("conflict threshold %v out of range [0,1]", p.ConflictThreshold)
	}
	if p.RetrieveTopK <= 0 {
		p.RetrieveTopK = DefaultRetrieveTopK
	}
	if p.MatchTopN <= 0 {
		p.MatchTopN = DefaultMatchTopN
	}

	return nil
}

func (p *Profile) String() string {
	return fmt.Sprintf("profile{mode=%s driver=%s data=%s port=%d}", p.Mode, p.Driver, p.Data, p.Port)
}
