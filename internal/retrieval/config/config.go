// Package config loads the retrieval engine's YAML configuration, following
// the same LoadConfig(path) + pterm console-reporting pattern the rest of
// the codebase uses.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v2"
)

// VerticalConfig maps a logical vertical to its external vector-store
// collection name and BM25 cache shard.
type VerticalConfig struct {
	Collection string `yaml:"collection"`
}

// WorkerPoolConfig sizes the bounded worker pool per mode, per spec.md §5.
type WorkerPoolConfig struct {
	QA      int `yaml:"qa"`
	Default int `yaml:"default"`
	Deep    int `yaml:"deep"`
}

// TimeoutsConfig carries every per-stage timeout named across spec.md §4/§5
// and the tighter query-understanding-coordinator budgets from
// original_source's query_coordinator.py (interpretation/rewrites/expansion).
type TimeoutsConfig struct {
	Interpretation  time.Duration `yaml:"interpretation"`
	Rewrites        time.Duration `yaml:"rewrites"`
	Expansion       time.Duration `yaml:"expansion"`
	DensePerTask    time.Duration `yaml:"dense_per_task"`
	DenseOverall    time.Duration `yaml:"dense_overall"`
	BM25            time.Duration `yaml:"bm25"`
	Embedding       time.Duration `yaml:"embedding"`
	Hop2            time.Duration `yaml:"hop2"`
	Internet        time.Duration `yaml:"internet"`
	RelationPhase1  time.Duration `yaml:"relation_phase1"`
	RelationPhase1Deep time.Duration `yaml:"relation_phase1_deep"`
	EntityExpansion time.Duration `yaml:"entity_expansion"`
	Bidirectional   time.Duration `yaml:"bidirectional"`
	CrossEncoder    time.Duration `yaml:"cross_encoder"`
	Diversity       time.Duration `yaml:"diversity"`
}

// CacheConfig is the `enable_cache`/`cache_ttl_seconds`/`cache_max_size`
// config surface named in spec.md §9.
type CacheConfig struct {
	Enabled    bool `yaml:"enable_cache"`
	TTLSeconds int  `yaml:"cache_ttl_seconds"`
	MaxSize    int  `yaml:"cache_max_size"`
	// RedisAddr is the address NewRedisQueryCache connects to. NewEngine
	// does not read it: the engine always uses the in-process TTL QueryCache.
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

// FeatureFlags is the remaining config surface named in spec.md §9.
type FeatureFlags struct {
	UseLLMRewrites    bool `yaml:"use_llm_rewrites"`
	UseLLMReranking   bool `yaml:"use_llm_reranking"`
	UseCrossEncoder   bool `yaml:"use_cross_encoder"`
	UseRelationEntity bool `yaml:"use_relation_entity"`
}

// Config is the retrieval engine's top-level configuration tree.
type Config struct {
	OpenAIAPIKey    string                    `yaml:"openai_api_key,omitempty"`
	AnthropicKey    string                    `yaml:"anthropic_key,omitempty"`
	GoogleGeminiKey string                    `yaml:"google_gemini_key,omitempty"`
	QdrantDSN       string                    `yaml:"qdrant_dsn"`
	Verticals       map[string]VerticalConfig `yaml:"verticals"`
	WorkerPool      WorkerPoolConfig          `yaml:"worker_pool"`
	Timeouts        TimeoutsConfig            `yaml:"timeouts"`
	Cache           CacheConfig               `yaml:"cache"`
	Features        FeatureFlags              `yaml:"features"`
	EmbeddingBatchSize int                    `yaml:"embedding_batch_size"`
	BM25CacheDir       string                 `yaml:"bm25_cache_dir"`
	KafkaTraceTopic    string                 `yaml:"kafka_trace_topic,omitempty"`
	KafkaBrokers       []string               `yaml:"kafka_brokers,omitempty"`
}

// Default returns a config with every documented default from spec.md §4/§5.
func Default() *Config {
	return &Config{
		Verticals: map[string]VerticalConfig{
			"legal":    {Collection: "ap_legal_documents"},
			"go":       {Collection: "ap_government_orders"},
			"judicial": {Collection: "ap_judicial_decisions"},
			"data":     {Collection: "ap_statistical_reports"},
			"schemes":  {Collection: "ap_welfare_schemes"},
		},
		WorkerPool: WorkerPoolConfig{QA: 4, Default: 6, Deep: 10},
		Timeouts: TimeoutsConfig{
			Interpretation:     3 * time.Second,
			Rewrites:           5 * time.Second,
			Expansion:          2 * time.Second,
			DensePerTask:       25 * time.Second,
			DenseOverall:       60 * time.Second,
			BM25:               10 * time.Second,
			Embedding:          5 * time.Second,
			Hop2:               30 * time.Second,
			Internet:           10 * time.Second,
			RelationPhase1:     5 * time.Second,
			RelationPhase1Deep: 8 * time.Second,
			EntityExpansion:    5 * time.Second,
			Bidirectional:      5 * time.Second,
			CrossEncoder:       8 * time.Second,
			Diversity:          3 * time.Second,
		},
		Cache: CacheConfig{Enabled: true, TTLSeconds: 600, MaxSize: 100},
		Features: FeatureFlags{
			UseLLMRewrites:    false,
			UseLLMReranking:   false,
			UseCrossEncoder:   true,
			UseRelationEntity: true,
		},
		EmbeddingBatchSize: 32,
		BM25CacheDir:       "./data/bm25",
	}
}

// LoadConfig reads YAML at filename, unmarshals into Default()'s tree, and
// reports progress to the console the way the rest of the codebase does.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		pterm.Error.Printf("Error reading retrieval config file: %v\n", err)
		return nil, fmt.Errorf("retrieval config: reading %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		pterm.Error.Printf("Error unmarshaling retrieval config: %v\n", err)
		return nil, fmt.Errorf("retrieval config: unmarshal: %w", err)
	}

	if cfg.Cache.MaxSize <= 0 {
		cfg.Cache.MaxSize = 100
		pterm.Info.Println("No cache_max_size specified, defaulting to 100.")
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 600
		pterm.Info.Println("No cache_ttl_seconds specified, defaulting to 600.")
	}

	pterm.Success.Println("Retrieval configuration loaded successfully.")
	return cfg, nil
}

// CollectionFor returns the external collection name for a vertical.
func (c *Config) CollectionFor(vertical string) string {
	if v, ok := c.Verticals[vertical]; ok {
		return v.Collection
	}
	return vertical
}
