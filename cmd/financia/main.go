package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"financia/internal/agent"
	appamqp "financia/internal/amqp"
	"financia/internal/config"
	apphttp "financia/internal/http"
	"financia/internal/log"
	"financia/internal/memory"
	"financia/internal/provider"
	"financia/internal/services"
	"financia/internal/store"
	"financia/internal/store/file"
	"financia/internal/store/sqlite"
	"financia/internal/tools"
)

const greeting = "Hello! I am FinancIA, your personal financial advisor. I already analyzed the dashboard on the left. Ask me anything about your spending, or tell me about a new expense and I will register it for you."

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Clients always live in the flat file; history and writes follow the
	// configured backend.
	fileStore := file.New(cfg.ClientsFile, cfg.HistoryFile)

	var (
		history  store.HistoryReader
		appender store.ExpenseAppender
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		history, appender = repo, repo
		logger.Info("Initialized sqlite backend", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
	default:
		history, appender = fileStore, fileStore
		logger.Info("Initialized file backend", "backend", cfg.DataBackend, "dir", cfg.DataDir)
	}

	conv, err := memory.Open(cfg.ConversationFile, greeting)
	if err != nil {
		logger.Error("Failed to open conversation store", "error", err, "path", cfg.ConversationFile)
		os.Exit(1)
	}

	var llm provider.Provider
	switch cfg.LLMProvider {
	case "anthropic":
		llm = provider.NewAnthropicProvider(cfg.AnthropicModel)
	default:
		llm = provider.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}
	logger.Info("Initialized LLM provider", "provider", llm.Name(), "model", llm.DefaultModel())

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	registrar := services.NewRegistrar(appender, events, logger)
	defs := tools.Registry(fileStore, history, registrar)
	ag := agent.New(llm, "", defs, cfg.ClientID, cfg.MaxToolIterations, logger.WithComponent("agent"))

	srv := apphttp.NewServer(":"+cfg.Port, fileStore, history, ag, conv, cfg.ClientID, cfg.CacheTTL, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 120 * time.Second // chat turns wait on the LLM
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting financia server", "port", cfg.Port, "client_id", cfg.ClientID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
