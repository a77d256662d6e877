package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/weekplanner/core/internal/adapters/localstore"
	"github.com/weekplanner/core/internal/application/services"
	"github.com/weekplanner/core/internal/infrastructure/config"
	"github.com/weekplanner/core/internal/infrastructure/database"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/infrastructure/server"
	"github.com/weekplanner/core/internal/ports"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the WeekPlanner API server",
		Long:  "Start the WeekPlanner API server against the configured backend: postgres when a database host is set, the local file store otherwise",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version). Only meaningful with a postgres backend; the local store migrates itself on open.",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewPINCommand creates the PIN management command for the local backend
func NewPINCommand() *cobra.Command {
	pinCmd := &cobra.Command{
		Use:   "pin",
		Short: "Local PIN management commands",
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set or replace the local store's PIN",
		Run: func(cmd *cobra.Command, args []string) {
			pin, _ := cmd.Flags().GetString("pin")
			current, _ := cmd.Flags().GetString("current")

			if pin == "" {
				log.Fatal("A PIN is required")
			}

			setPIN(pin, current)
		},
	}

	setCmd.Flags().String("pin", "", "New PIN, 4 to 6 digits (required)")
	setCmd.Flags().String("current", "", "Current PIN, required when one is already set")

	pinCmd.AddCommand(setCmd)
	return pinCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print WeekPlanner version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("WeekPlanner Core v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	var deps server.Deps
	if cfg.RemoteEnabled() {
		db, err := database.New(cfg.Database)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", "error", err)
		}
		defer db.Close()
		deps.DB = db
	} else {
		store, err := localstore.Open(cfg.LocalStore.Path)
		if err != nil {
			appLogger.Fatal("Failed to open local store", "error", err)
		}
		defer store.Close()
		deps.Store = store
	}

	if cfg.CacheEnabled() {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer deps.Redis.Close()
	}

	srv, err := server.New(cfg, deps, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	appLogger.Info("Starting WeekPlanner API server",
		"port", cfg.Server.Port,
		"backend", backendName(cfg),
		"environment", cfg.App.Environment,
	)

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			appLogger.Info("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
	}
}

func backendName(cfg *config.Config) string {
	if cfg.RemoteEnabled() {
		return "postgres"
	}
	return "localstore"
}

func runMigration(direction string) {
	m := migrationInstance()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	m := migrationInstance()

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func migrationInstance() *migrate.Migrate {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.RemoteEnabled() {
		log.Fatal("Migrations require a configured database host")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	return m
}

func setPIN(pin, current string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := localstore.Open(cfg.LocalStore.Path)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer store.Close()

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	credRepo := localstore.NewCredentialRepository(store)
	authService := services.NewAuthService(nil, nil, credRepo, cfg.JWT, appLogger)

	req := ports.PINSetupRequest{PIN: pin, Confirm: pin}
	if err := authService.SetupPIN(context.Background(), req, current); err != nil {
		log.Fatalf("Failed to set PIN: %v", err)
	}

	fmt.Println("PIN configured")
}
