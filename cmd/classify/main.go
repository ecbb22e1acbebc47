package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"github.com/penta/llm-email-classifier/internal/factory"
	"github.com/penta/llm-email-classifier/internal/feedback"
	"github.com/penta/llm-email-classifier/internal/logging"
	"github.com/penta/llm-email-classifier/internal/tools"
	"github.com/penta/llm-email-classifier/internal/utils"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "anthropic", "LLM provider (anthropic, openai)")
	maxTokens   = flag.Int("max-tokens", 4096, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.3, "Temperature for LLM generation")
	maxBodySize = flag.Int("max-body-size", 8192, "Maximum email body size to send to LLM")

	// Anthropic flags
	anthropicAPIKey = flag.String("anthropic-api-key", "", "API key for Anthropic")
	anthropicModel  = flag.String("anthropic-model", "claude-3-5-sonnet-20240620", "Anthropic model name")

	// OpenAI flags
	openaiAPIKey = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModel  = flag.String("openai-model", "gpt-4-turbo-preview", "OpenAI model name")

	// Knowledge base flags
	indexBackend   = flag.String("index", "memory", "Vector index backend (memory, sqlite, mysql, pgvector)")
	sqlitePath     = flag.String("sqlite-path", "./data/knowledge.db", "SQLite database path")
	embedder       = flag.String("embedder", "local", "Embedding backend (local, openai)")
	contextResults = flag.Int("context-results", 3, "Retrieved neighbors per collection")

	// Agent flags
	threshold       = flag.Float64("threshold", 0.7, "Confidence threshold below which results need review")
	disableLearning = flag.Bool("disable-learning", false, "Disable knowledge base write-back")
	feedbackLogPath = flag.String("feedback-log", "./data/feedback_log.json", "Path to the feedback log")

	// Feedback flags
	feedbackCategory = flag.String("feedback-category", "", "Record a corrected category for the classified email")
	feedbackNotes    = flag.String("feedback-notes", "", "Notes to attach to the feedback entry")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
	showStats  = flag.Bool("stats", false, "Print agent statistics and exit")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Initialize LLM client
	llmFactory := factory.NewLLMFactory(cfg, logger)
	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// Initialize knowledge base
	knowledgeFactory := factory.NewKnowledgeFactory(cfg, logger)
	kb, err := knowledgeFactory.CreateKnowledgeBase()
	if err != nil {
		logger.Fatal("Failed to create knowledge base", zap.Error(err))
	}
	defer func() {
		if closer, ok := kb.Index().(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close vector index", zap.Error(err))
			}
		}
	}()

	// Initialize tool registry and feedback log
	registry := tools.NewDefaultRegistry(kb)
	feedbackLog, err := feedback.NewJSONLog(cfg.GetFeedback().LogPath, logger)
	if err != nil {
		logger.Fatal("Failed to open feedback log", zap.Error(err))
	}

	agentCfg := cfg.GetAgent()
	service := core.NewClassificationService(
		llmClient,
		kb,
		registry,
		feedbackLog,
		logger,
		cfg.GetLLM().Provider,
		agentCfg.EnableLearning,
		agentCfg.ConfidenceThreshold,
	)

	ctx := context.Background()

	if *showStats {
		stats, err := service.Stats(ctx)
		if err != nil {
			logger.Fatal("Failed to read stats", zap.Error(err))
		}
		printJSON(stats)
		return
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	sender := msg.Header.Get("From")
	subject := msg.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}

	textProcessor := utils.NewTextProcessor(logger)
	body := textProcessor.TruncateText(string(bodyBytes), llmFactory.MaxBodySize())

	email := core.NewEmail(subject, body, sender)

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", sender)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))
	fmt.Printf("\n")

	fmt.Printf("=== Classification ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetLLM().Provider)

	startTime := time.Now()
	result, err := service.Classify(ctx, email)
	if err != nil {
		logger.Fatal("Failed to classify email", zap.Error(err))
	}
	duration := time.Since(startTime)

	printJSON(result)
	fmt.Printf("\nNeeds review: %t\n", service.NeedsReview(result))
	fmt.Printf("Processing time: %v\n", duration)

	// Optionally record a human correction
	if *feedbackCategory != "" {
		correct, err := core.ParseCategory(*feedbackCategory)
		if err != nil {
			logger.Fatal("Invalid feedback category", zap.Error(err))
		}
		if err := service.ProvideFeedback(ctx, email, result.PrimaryCategory, correct, result.Confidence, *feedbackNotes); err != nil {
			logger.Fatal("Failed to record feedback", zap.Error(err))
		}
		fmt.Printf("Feedback recorded: %s -> %s\n", result.PrimaryCategory, correct)
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "anthropic":
		v.Set("anthropic.api_key", *anthropicAPIKey)
		v.Set("anthropic.model", *anthropicModel)
		v.Set("anthropic.max_tokens", *maxTokens)
		v.Set("anthropic.temperature", *temperature)
		v.Set("anthropic.max_body_size", *maxBodySize)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model", *openaiModel)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.max_body_size", *maxBodySize)
	}

	// Set knowledge base configuration
	v.Set("knowledge.index", *indexBackend)
	v.Set("knowledge.sqlite_path", *sqlitePath)
	v.Set("knowledge.embedder", *embedder)
	v.Set("knowledge.context_results", *contextResults)

	if *embedder == "openai" {
		v.Set("openai.api_key", *openaiAPIKey)
	}

	// Set agent configuration
	v.Set("agent.confidence_threshold", *threshold)
	v.Set("agent.enable_learning", !*disableLearning)
	v.Set("feedback.log_path", *feedbackLogPath)

	return config.NewFromViper(v)
}
