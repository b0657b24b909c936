package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	auditpg "github.com/frahmantamala/storefront-pos/internal/audit/postgres"
	"github.com/frahmantamala/storefront-pos/internal/auth"
	authpg "github.com/frahmantamala/storefront-pos/internal/auth/postgres"
	"github.com/frahmantamala/storefront-pos/internal/core/events"
	"github.com/frahmantamala/storefront-pos/internal/product"
	productpg "github.com/frahmantamala/storefront-pos/internal/product/postgres"
	"github.com/frahmantamala/storefront-pos/internal/sale"
	salepg "github.com/frahmantamala/storefront-pos/internal/sale/postgres"
	"github.com/frahmantamala/storefront-pos/internal/transport/rest"
	"github.com/frahmantamala/storefront-pos/internal/user"
	userpg "github.com/frahmantamala/storefront-pos/internal/user/postgres"
	"github.com/frahmantamala/storefront-pos/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config         *internal.Config
	DB             *sqlx.DB
	Router         *chi.Mux
	Logger         *slog.Logger
	AuthHandler    *auth.Handler
	UserHandler    *user.Handler
	ProductHandler *product.Handler
	SaleHandler    *sale.Handler
	AuditHandler   *audit.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.AuthHandler, deps.UserHandler, deps.ProductHandler, deps.SaleHandler, deps.AuditHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the sqlx pool so repositories and raw report
	// queries see the same connection limits
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)
	eventBus.Subscribe(events.EventTypeLowStock, func(ctx context.Context, event events.Event) error {
		appLogger.Warn("low stock alert", "event_id", event.EventID(), "payload", event.Payload())
		return nil
	})

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)

	authRepo := authpg.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost, appLogger)
	authHandler := auth.NewHandler(authService)

	userRepo := userpg.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, config.Security.BCryptCost, appLogger)
	userHandler := user.NewHandler(userService)

	productRepo := productpg.NewProductRepository(gormDB)
	productService := product.NewService(productRepo, eventBus, appLogger)
	productHandler := product.NewHandler(productService)

	auditRepo := auditpg.NewAuditRepository(gormDB)
	reportsRepo := auditpg.NewReportsRepository(db)
	auditService := audit.NewService(auditRepo, reportsRepo, appLogger)
	auditHandler := audit.NewHandler(auditService)

	saleRepo := salepg.NewSaleRepository(gormDB)
	saleService := sale.NewService(saleRepo, auditRepo, eventBus, appLogger)
	saleHandler := sale.NewHandler(saleService)

	return &Dependencies{
		Config:         config,
		Logger:         appLogger,
		DB:             db,
		Router:         chi.NewRouter(),
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		ProductHandler: productHandler,
		SaleHandler:    saleHandler,
		AuditHandler:   auditHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
