package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/config"
	"vineyard-api/database"
	adminapi "vineyard-api/internal/api/admin"
	authapi "vineyard-api/internal/api/auth"
	issuesapi "vineyard-api/internal/api/issues"
	maintenanceapi "vineyard-api/internal/api/maintenance"
	usersapi "vineyard-api/internal/api/users"
	vinesapi "vineyard-api/internal/api/vines"
	routes "vineyard-api/internal/app/http"
	"vineyard-api/internal/infra/imagestore"
	"vineyard-api/internal/platform/logger"
	"vineyard-api/internal/repos"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer appLog.Sync()
	if !dotenv {
		appLog.Debug("No .env file found, using process environment")
	}
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DBURL, cfg.DB, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	if err := db.Migrate(); err != nil {
		appLog.Fatal("Migration failed", "error", err)
	}

	store, err := imagestore.New(cfg.UploadDir, cfg.MaxUploadBytes, appLog)
	if err != nil {
		appLog.Fatal("Upload directory unusable", "dir", cfg.UploadDir, "error", err)
	}

	gdb := db.DB()
	vineRepo := repos.NewVineRepo(gdb, appLog)
	locationRepo := repos.NewVineLocationRepo(gdb, appLog)
	inventory := repos.NewInventoryRepo(gdb, vineRepo, locationRepo, appLog)
	issueRepo := repos.NewIssueRepo(gdb, store, appLog)
	typeRepo := repos.NewMaintenanceTypeRepo(gdb, appLog)
	activityRepo := repos.NewMaintenanceActivityRepo(gdb, appLog)
	userRepo := repos.NewUserRepo(gdb, appLog)

	ctx := context.Background()
	err = db.Transact(ctx, func(tx *gorm.DB) error {
		return adminapi.EnsureAdministrator(ctx, tx, userRepo, cfg.AdminEmail, cfg.AdminPassword, appLog)
	})
	if err != nil {
		appLog.Fatal("Failed to seed administrator", "error", err)
	}

	tokens := authapi.NewTokens(cfg.JWTKey, cfg.TokenTTL)
	var google *authapi.Google
	if cfg.GoogleEnabled() {
		google = authapi.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.GoogleFrontendRedirect)
	}

	r := routes.NewRouter(routes.Handlers{
		Auth:        authapi.NewHandler(userRepo, tokens, google, appLog),
		Users:       usersapi.NewHandler(userRepo),
		Admin:       adminapi.NewHandler(userRepo, appLog),
		Vines:       vinesapi.NewHandler(vineRepo, locationRepo, inventory, appLog),
		Issues:      issuesapi.NewHandler(issueRepo, store, appLog),
		Maintenance: maintenanceapi.NewHandler(typeRepo, activityRepo, appLog),
		Tokens:      tokens,
		Accounts:    userRepo,
		DB:          db,
		UploadDir:   store.Root(),
		Log:         appLog,
	}, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		appLog.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down")

	httpCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		appLog.Warn("HTTP shutdown incomplete", "error", err)
	}

	dbCtx, cancelDB := context.WithTimeout(ctx, cfg.DB.ShutdownTimeout)
	defer cancelDB()
	if err := db.Close(dbCtx); err != nil {
		appLog.Warn("Database pool did not drain cleanly", "error", err)
	}
}
