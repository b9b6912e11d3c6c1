package cli

import (
	"context"
	"os"

	"github.com/gema-dev/gema/pkg/adapter"
	"github.com/gema-dev/gema/pkg/index"
	"github.com/gema-dev/gema/pkg/ingest"
	"github.com/gema-dev/gema/pkg/repository"
	"github.com/gema-dev/gema/pkg/usecase/ask"
	"github.com/gema-dev/gema/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel string

	// Repository
	project  string
	database string

	// Embedding
	geminiProject  string
	geminiLocation string
	embeddingModel string

	// Generation
	llmBackend  string
	geminiModel string
	groqAPIKey  string
	groqBaseURL string
	groqModel   string

	// Pipeline
	topK          int64
	minSimilarity float64
	tauHigh       float64

	// Local dataset used when no Firestore project is configured
	dataset string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("GEMA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore (omit to keep records in memory)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "dataset",
			Usage:       "CSV dataset to index at startup when using the in-memory store",
			Sources:     cli.EnvVars("GEMA_DATASET"),
			Destination: &cfg.dataset,
		},
	}
}

// llmFlags returns flags for embedding and generation backends
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Sources:     cli.EnvVars("GEMA_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Generation backend (gemini or groq)",
			Value:       "gemini",
			Sources:     cli.EnvVars("GEMA_LLM"),
			Destination: &cfg.llmBackend,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini generation model name",
			Sources:     cli.EnvVars("GEMA_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "groq-api-key",
			Usage:       "Groq API key",
			Sources:     cli.EnvVars("GROQ_API_KEY"),
			Destination: &cfg.groqAPIKey,
		},
		&cli.StringFlag{
			Name:        "groq-base-url",
			Usage:       "Groq API base URL",
			Value:       adapter.GroqBaseURL,
			Sources:     cli.EnvVars("GROQ_BASE_URL"),
			Destination: &cfg.groqBaseURL,
		},
		&cli.StringFlag{
			Name:        "groq-model",
			Usage:       "Groq generation model name",
			Sources:     cli.EnvVars("GEMA_GROQ_MODEL"),
			Destination: &cfg.groqModel,
		},
	}
}

// pipelineFlags returns retrieval and verification tuning flags
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of candidates retrieved per question",
			Value:       int64(ask.DefaultConfig().TopK),
			Sources:     cli.EnvVars("GEMA_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.FloatFlag{
			Name:        "min-similarity",
			Usage:       "Minimum similarity for a candidate to count as evidence",
			Value:       ask.DefaultConfig().MinSimilarity,
			Sources:     cli.EnvVars("GEMA_MIN_SIMILARITY"),
			Destination: &cfg.minSimilarity,
		},
		&cli.FloatFlag{
			Name:        "tau-high",
			Usage:       "Top-score threshold required to attempt an answer",
			Value:       ask.DefaultConfig().Verify.TauHigh,
			Sources:     cli.EnvVars("GEMA_TAU_HIGH"),
			Destination: &cfg.tauHigh,
		},
	}
}

// setupLogger installs the default logger according to the log-level flag
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newRepository creates the record store. Firestore is used when a
// project is configured, otherwise records live in memory for the
// lifetime of the process.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return repository.NewMemory(), nil
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newEmbedder creates the Gemini embedding client
func (cfg *config) newEmbedder(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}

	var opts []adapter.GeminiOption
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}
	if cfg.geminiModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.geminiModel))
	}

	client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return client, nil
}

// newLLM creates the generation backend selected by the llm flag. The
// gemini client is reused when it is already built for embeddings.
func (cfg *config) newLLM(gemini *adapter.GeminiClient) (adapter.LLM, error) {
	switch cfg.llmBackend {
	case "gemini":
		return gemini, nil

	case "groq":
		if cfg.groqAPIKey == "" {
			return nil, goerr.New("groq-api-key is required")
		}
		var opts []adapter.GroqOption
		if cfg.groqModel != "" {
			opts = append(opts, adapter.WithGroqModel(cfg.groqModel))
		}
		return adapter.NewGroq(cfg.groqAPIKey, cfg.groqBaseURL, opts...)

	default:
		return nil, goerr.New("unknown llm backend", goerr.V("llm", cfg.llmBackend))
	}
}

// newIndex builds the embedding index over the configured repository.
// When the in-memory store is used, the dataset CSV is ingested and
// embedded before the index is returned.
func (cfg *config) newIndex(ctx context.Context, embedder adapter.Embedder) (*index.Index, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	idx := index.New(embedder, repo)

	if cfg.project == "" {
		if cfg.dataset == "" {
			return nil, goerr.New("dataset is required with the in-memory store")
		}
		records, err := ingest.LoadCSV(cfg.dataset)
		if err != nil {
			return nil, err
		}
		result, err := idx.Build(ctx, records)
		if err != nil {
			return nil, err
		}
		logging.From(ctx).Info("indexed dataset",
			"dataset", cfg.dataset,
			"indexed", result.Indexed,
			"excluded", result.Excluded,
		)
	}

	return idx, nil
}

// newPipeline assembles the full question answering pipeline
func (cfg *config) newPipeline(ctx context.Context) (*ask.UseCase, error) {
	gemini, err := cfg.newEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	llm, err := cfg.newLLM(gemini)
	if err != nil {
		return nil, err
	}

	idx, err := cfg.newIndex(ctx, gemini)
	if err != nil {
		return nil, err
	}

	askCfg := ask.DefaultConfig()
	if cfg.topK > 0 {
		askCfg.TopK = int(cfg.topK)
	}
	if cfg.minSimilarity > 0 {
		askCfg.MinSimilarity = cfg.minSimilarity
	}
	if cfg.tauHigh > 0 {
		askCfg.Verify.TauHigh = cfg.tauHigh
	}

	return ask.New(idx, llm, askCfg), nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context, bucketName string) (adapter.Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, bucketName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}
