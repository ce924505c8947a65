package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github/itish2003/pdfqa/config"
	"github/itish2003/pdfqa/controller"
	"github/itish2003/pdfqa/logger"
	"github/itish2003/pdfqa/middleware"
	"github/itish2003/pdfqa/services"
	"github/itish2003/pdfqa/telemetry"
	"github/itish2003/pdfqa/web"
)

const serviceName = "pdfqa"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load config: %v", err)
	}
	logger.Init(cfg.GinMode == "debug")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize tracing: %v", err)
	}
	defer shutdownTracer()

	openStore, closeStore, err := newStoreFactory(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to set up vector store: %v", err)
	}
	defer closeStore()

	extractor, err := services.NewTextExtractor(cfg.UnidocLicenseKey)
	if err != nil {
		log.Fatalf("FATAL: Failed to set up PDF extraction: %v", err)
	}

	splitter, err := newSplitter(cfg.Chunking)
	if err != nil {
		log.Fatalf("FATAL: Invalid chunking configuration: %v", err)
	}

	model, err := newChatModel(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chat model: %v", err)
	}

	uploads, err := services.NewUploadStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to prepare upload directory: %v", err)
	}

	ragService := services.NewRAGService(extractor, splitter, openStore, model, cfg.Chunking.TopK)
	ragController := controller.NewRAGController(ragService, uploads, "PDF QA Chatbot")

	if cfg.WatchDir != "" {
		watcher := services.NewInboxWatcher(ragService, cfg.WatchDir)
		go func() {
			watcher.ScanDirectory(ctx)
			watcher.WatchDirectory(ctx)
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(cfg, ragController),
	}

	go func() {
		logger.Info("server starting", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
}

func newRouter(cfg *config.Config, ragController *controller.RAGController) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.SetHTMLTemplate(web.Templates())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
			"version": "1.0.0",
		})
	})
	router.GET("/", ragController.Index)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/upload", middleware.BodySizeLimit(cfg.MaxUploadBytes), ragController.UploadDocument)
		apiV1.POST("/query", middleware.RateLimit(cfg.QueryRateLimit, cfg.QueryBurst), ragController.AskQuestion)
		apiV1.GET("/status", ragController.GetStatus)
	}
	return router
}

// newStoreFactory returns the function that opens a store for each new
// document, plus a cleanup for any client it holds.
func newStoreFactory(cfg *config.Config) (services.StoreFactory, func(), error) {
	embedder, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.VectorStore.Type {
	case "memory":
		return func(_ context.Context, _ string) (services.VectorStore, error) {
			return services.NewEmbeddingStore(embedder, services.NewMemoryIndex()), nil
		}, func() {}, nil

	default:
		chromaClient, err := chromago.NewHTTPClient(
			chromago.WithBaseURL(cfg.VectorStore.URL),
			chromago.WithDatabaseAndTenant(cfg.VectorStore.Database, cfg.VectorStore.Tenant),
			chromago.WithDefaultHeaders(map[string]string{"X-Chroma-Token": cfg.VectorStore.Token}),
		)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := chromaClient.Close(); err != nil {
				logger.Warn("failed to close chroma client", "error", err)
			}
		}
		table := cfg.VectorStore.TableName
		return func(ctx context.Context, source string) (services.VectorStore, error) {
			index, err := services.NewChromaIndex(ctx, chromaClient, table, source, embedder)
			if err != nil {
				return nil, err
			}
			return services.NewEmbeddingStore(embedder, index), nil
		}, closeClient, nil
	}
}

func newEmbedder(cfg config.EmbedderConfig) (services.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		model := cfg.Model
		if model == services.DefaultEmbeddingModel {
			model = "all-minilm"
		}
		return services.NewOllamaEmbedder(&http.Client{Timeout: 30 * time.Second}, cfg.OllamaURL, model), nil
	default:
		return services.NewHuggingFaceEmbedder(cfg.HFToken, cfg.Model)
	}
}

func newSplitter(cfg config.ChunkingConfig) (services.TextSplitter, error) {
	if cfg.Strategy == "recursive" {
		return services.NewRecursiveSplitter(cfg.Size, cfg.Overlap)
	}
	return services.NewCharacterSplitter(
		services.WithChunkSize(cfg.Size),
		services.WithChunkOverlap(cfg.Overlap),
		services.WithSeparator(cfg.Separator),
	)
}

func newChatModel(ctx context.Context, cfg config.LLMConfig) (services.ChatModel, error) {
	switch cfg.Provider {
	case "gemini":
		return services.NewGeminiChatModel(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	default:
		return services.NewOpenAICompatibleChatModel(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature)
	}
}
