// Command retrieve is a thin CLI front end over the retrieval engine: it
// wires config, logging, metrics, and collaborators together and runs one
// query through the orchestrator. Grounded on the teacher's root main.go
// (godotenv.Load + flag-based CLI) and internal/config's LoadConfig/pterm
// reporting pattern.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators/anthropic"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators/fakes"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators/gemini"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators/openai"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators/qdrant"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/config"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/model"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/obs"
	"github.com/Nithin8919/policyretrieval/internal/retrieval/orchestrator"
)

func main() {
	_ = godotenv.Load()

	queryText := flag.String("q", "", "Query text (required)")
	mode := flag.String("mode", string(model.ModeQA), "qa | policy_brief | policy_draft | deep_think | brainstorm")
	configPath := flag.String("config", "", "Path to a retrieval config YAML file (optional, defaults otherwise)")
	useFakes := flag.Bool("fake", false, "Use in-memory fake collaborators instead of live Qdrant/LLM backends")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if *queryText == "" {
		pterm.Error.Println("-q is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			pterm.Error.Printf("failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	zlog := zerolog.New(os.Stderr).Level(logLevel).With().Timestamp().Logger()
	logger := obs.NewZerologLogger(zlog)
	metrics := obs.NewOtelMetrics()

	engine := orchestrator.NewEngine(cfg, logger, metrics)
	defer func() { _ = engine.TracePublisher.Close() }()

	if *useFakes {
		wireFakes(engine)
	} else if err := wireLive(engine, cfg); err != nil {
		pterm.Error.Printf("failed to wire live collaborators: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	out := engine.Retrieve(ctx, model.Query{Text: *queryText, Mode: model.Mode(*mode)})

	encoded, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(encoded))
}

func wireFakes(e *orchestrator.Engine) {
	embedder := fakes.NewDeterministicEmbedder(64)
	e.Embedder = embedder
	e.VectorStore = fakes.NewVectorStore(embedder)
	e.BM25 = fakes.NewBM25Index()
	e.CrossEncoder = fakes.CrossEncoder{}
	e.InternetSearch = &fakes.InternetSearch{}
	e.ClauseIndexer = &fakes.ClauseIndexer{}
}

func wireLive(e *orchestrator.Engine, cfg *config.Config) error {
	store, err := qdrant.New(cfg.QdrantDSN)
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	e.VectorStore = store

	switch {
	case cfg.OpenAIAPIKey != "":
		client := openai.New(cfg.OpenAIAPIKey, "")
		e.RewriteLLM = client
		e.CategoryLLM = client
		if cfg.Features.UseCrossEncoder {
			e.CrossEncoder = client
		}
	case cfg.AnthropicKey != "":
		client := anthropic.New(cfg.AnthropicKey, "")
		e.RewriteLLM = client
		e.CategoryLLM = client
	case cfg.GoogleGeminiKey != "":
		client, err := gemini.New(context.Background(), cfg.GoogleGeminiKey, "")
		if err != nil {
			return fmt.Errorf("init gemini provider: %w", err)
		}
		e.RewriteLLM = client
		e.CategoryLLM = client
	}

	return nil
}
