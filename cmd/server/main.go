package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/db"
	"github.com/ignatzorin/freelance-escrow/internal/goroutine"
	httpHandlers "github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	httpRouter "github.com/ignatzorin/freelance-escrow/internal/http/router"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/storage"
	"github.com/ignatzorin/freelance-escrow/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	deliverables, err := storage.NewDeliverableStorage(cfg.DeliverableStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	repos := service.Repositories{
		Orders:        repository.NewOrderRepository(dbConn),
		Catalog:       repository.NewCatalogRepository(dbConn),
		Escrows:       repository.NewEscrowRepository(dbConn),
		Accounts:      repository.NewAccountRepository(dbConn),
		Disputes:      repository.NewDisputeRepository(dbConn),
		Revisions:     repository.NewRevisionRepository(dbConn),
		Reviews:       repository.NewReviewRepository(dbConn),
		Deliverables:  repository.NewDeliverableRepository(dbConn),
		Conversations: repository.NewConversationRepository(dbConn),
		Withdrawals:   repository.NewWithdrawalRepository(dbConn),
		History:       repository.NewOrderHistoryRepository(dbConn),
	}
	tx := common.NewTransactor(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo("ws.hub", hub.Run)
	notifier := ws.NewOrderNotifier(hub)

	// Сервисы.
	escrowService := service.NewEscrowService(tx, repos.Escrows, repos.Accounts)
	orderService := service.NewOrderService(tx, repos, escrowService, notifier)
	revisionService := service.NewRevisionService(tx, repos, notifier)
	disputeService := service.NewDisputeService(tx, repos, escrowService, notifier)
	withdrawalService := service.NewWithdrawalService(tx, repos, cfg.MinWithdrawalAmount, notifier)
	clearanceService := service.NewClearanceService(repository.NewUserRoleRepository(dbConn))

	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Orders:      httpHandlers.NewOrderHandler(orderService, revisionService, deliverables),
		Disputes:    httpHandlers.NewDisputeHandler(disputeService),
		Withdrawals: httpHandlers.NewWithdrawalHandler(withdrawalService),
		Health:      httpHandlers.NewHealthHandler(dbConn),
		WS:          httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	}, tokenManager, clearanceService)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	shutdownDone := make(chan struct{})
	goroutine.SafeGoWithContext(ctx, "http.shutdown", func(ctx context.Context) {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
	<-shutdownDone
	logger.Log.Info("main: сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
