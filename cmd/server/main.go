package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"github.com/zenithmed/procureflow/internal/api"
	"github.com/zenithmed/procureflow/internal/config"
	"github.com/zenithmed/procureflow/internal/export"
	"github.com/zenithmed/procureflow/internal/invoice"
	"github.com/zenithmed/procureflow/internal/notify"
	"github.com/zenithmed/procureflow/internal/payment"
	"github.com/zenithmed/procureflow/internal/repository"
	"github.com/zenithmed/procureflow/internal/storage"
	"github.com/zenithmed/procureflow/internal/workflow"
	"github.com/zenithmed/procureflow/pkg/database"
	"github.com/zenithmed/procureflow/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create export directory", zap.Error(err))
	}

	// Repositories
	requisitionRepo := repository.NewRequisitionRepository(db.DB, logger)
	itemRepo := repository.NewItemRepository(db.DB, logger)
	histologyRepo := repository.NewHistologyRepository(db.DB, logger)
	logRepo := repository.NewApprovalLogRepository(db.DB, logger)
	messageRepo := repository.NewMessageRepository(db.DB, logger)
	paymentRepo := repository.NewPaymentRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	profileRepo := repository.NewProfileRepository(db.DB, logger)

	// Notification dispatcher, with optional Lark push
	var transport notify.Transport
	if cfg.Lark.Enabled {
		transport = notify.NewLarkTransport(cfg.Lark.AppID, cfg.Lark.AppSecret, logger)
		logger.Info("Lark push transport enabled")
	}
	dispatcher := notify.NewDispatcher(profileRepo, notificationRepo, transport, logger)

	approvers := workflow.NamedApprovers{
		Chairman: cfg.Approvers.ChairmanName,
		Auditor:  cfg.Approvers.AuditorName,
	}

	engine := workflow.NewEngine(
		requisitionRepo,
		itemRepo,
		histologyRepo,
		logRepo,
		messageRepo,
		dispatcher,
		approvers,
		logger,
	)

	ledger := payment.NewLedger(requisitionRepo, paymentRepo, logRepo, logger)
	proofStore := storage.NewProofStore(cfg.Storage.ProofDir, logger)
	renderer := export.NewWorkbookRenderer(cfg.Export.OrgName, logger)

	handlers := api.Handlers{
		Requisitions: api.NewRequisitionHandler(
			engine, requisitionRepo, itemRepo, histologyRepo,
			logRepo, messageRepo, paymentRepo, logger),
		Payments:      api.NewPaymentHandler(ledger, paymentRepo, proofStore, logger),
		Notifications: api.NewNotificationHandler(notificationRepo),
		Export: api.NewExportHandler(
			renderer, requisitionRepo, itemRepo, histologyRepo,
			logRepo, paymentRepo, cfg.Export.OutputDir, logger),
	}
	if cfg.OpenAI.APIKey != "" {
		extractor := invoice.NewExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
		handlers.Extract = api.NewExtractHandler(extractor, logger)
		logger.Info("Quote extraction enabled", zap.String("model", cfg.OpenAI.Model))
	}

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handlers, profileRepo, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
