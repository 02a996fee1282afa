package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/complyflow-labs/complyflow/internal/api/handlers"
	"github.com/complyflow-labs/complyflow/internal/config"
	"github.com/complyflow-labs/complyflow/internal/database"
	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/extract"
	"github.com/complyflow-labs/complyflow/internal/openai"
	"github.com/complyflow-labs/complyflow/internal/repository"
	"github.com/complyflow-labs/complyflow/internal/server"
	"github.com/complyflow-labs/complyflow/internal/service"
	"github.com/complyflow-labs/complyflow/internal/sources"
	"github.com/complyflow-labs/complyflow/internal/telemetry"
	"github.com/complyflow-labs/complyflow/internal/watcher"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the compliance API server and discovery watchers",
		Long:  "Run migrations, start the document discovery watchers and serve the HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-watch", false, "Disable the discovery watchers")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)
	ledgerRepo := repository.NewDiscoveryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var loader service.TextLoader
	if cfg.ExtractorURL != "" {
		loader = extract.NewLoader(extract.NewHTTPExtractor(cfg.ExtractorURL))
		log.Printf("using extraction service at %s", cfg.ExtractorURL)
	} else {
		loader = extract.NewLoader(nil)
		log.Println("no extractor configured, only plain-text documents will load")
	}

	var chatSvc handlers.ChatService
	var auditSvc handlers.AuditorService
	var classifierSvc watcher.Classifier
	var ingestSvc *service.IngestService

	if cfg.HasOpenAI() {
		aiClient := openai.NewClientWithConfig(openai.Config{
			APIKey:    cfg.OpenAIAPIKey,
			ChatModel: cfg.ChatModel,
		})

		retriever := service.NewRetrieverService(aiClient, chunkRepo, cfg.Collection)
		ingestSvc = service.NewIngestService(loader, aiClient, chunkRepo, cfg.Collection)
		classifierSvc = service.NewClassifierService(aiClient)
		chatSvc = service.NewChatService(retriever, aiClient)
		auditSvc = service.NewAuditorService(aiClient, retriever)
	} else {
		log.Println("OPENAI_API_KEY not set, chat and audit endpoints disabled")
		chatSvc = &NoOpChatService{}
		auditSvc = &NoOpAuditorService{}
	}

	noWatch, _ := cmd.Flags().GetBool("no-watch")
	var workers []*watcher.Worker
	if !noWatch && ingestSvc != nil {
		workers, err = startWatchers(ctx, cfg, watcher.DiscoveryConfig{
			Ledger:     ledgerRepo,
			Tx:         txRunner,
			Ingester:   ingestSvc,
			Classifier: classifierSvc,
			Loader:     loader,
			StagingDir: cfg.StagingDir,
		})
		if err != nil {
			return err
		}
	}

	routerCfg := server.RouterConfig{
		ChatHandler:         handlers.NewChatHandler(chatSvc),
		NotificationHandler: handlers.NewNotificationHandler(notificationRepo),
		AuditHandler:        handlers.NewAuditHandler(auditSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// startWatchers wires a discovery worker per configured source. The base
// config carries the shared dependencies; each source fills in its own
// listing, category and cadence.
func startWatchers(ctx context.Context, cfg *config.Config, base watcher.DiscoveryConfig) ([]*watcher.Worker, error) {
	var workers []*watcher.Worker

	if cfg.HasS3() {
		folder, err := sources.NewFolderSource(ctx, sources.FolderSourceConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.FolderPrefix,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create folder source: %w", err)
		}
		if err := folder.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure watch bucket: %w", err)
		}
		log.Printf("watch bucket '%s' ready", cfg.S3Bucket)

		folderCfg := base
		folderCfg.Source = folder
		folderCfg.Category = domain.CategoryNotifications
		w := watcher.NewWorker("folder", watcher.NewDiscoveryProcessor(folderCfg), cfg.FolderPollInterval)
		go w.Start(ctx)
		workers = append(workers, w)
	}

	if cfg.HasPortal() {
		portalCfg := base
		portalCfg.Source = sources.NewPortalSource(cfg.PortalURL)
		portalCfg.Category = domain.CategoryCirculars
		w := watcher.NewWorker("portal", watcher.NewDiscoveryProcessor(portalCfg), cfg.PortalPollInterval)
		go w.Start(ctx)
		workers = append(workers, w)
	}

	if len(workers) == 0 {
		log.Println("no discovery sources configured, watchers idle")
	}

	return workers, nil
}

type NoOpChatService struct{}

func (s *NoOpChatService) Respond(ctx context.Context, message string, history []domain.Turn, hints service.ConversationHints) (*service.ChatResponse, error) {
	return nil, fmt.Errorf("chat service not configured: OPENAI_API_KEY required")
}

type NoOpAuditorService struct{}

func (s *NoOpAuditorService) Verify(ctx context.Context, doc *domain.ExtractedDocument) (*service.VerificationResult, error) {
	return nil, fmt.Errorf("audit service not configured: OPENAI_API_KEY required")
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
