package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cameron-nye/hearth/internal/api"
	"github.com/cameron-nye/hearth/internal/calendar"
	"github.com/cameron-nye/hearth/internal/config"
	"github.com/cameron-nye/hearth/internal/photos"
	"github.com/cameron-nye/hearth/internal/repository/postgres"
	"github.com/cameron-nye/hearth/internal/secrets"
	"github.com/cameron-nye/hearth/internal/service"
	"github.com/cameron-nye/hearth/internal/storage"
	"github.com/cameron-nye/hearth/pkg/logger"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting hearth...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	householdRepo := postgres.NewHouseholdRepository(db.DB)
	memberRepo := postgres.NewMemberRepository(db.DB)
	eventRepo := postgres.NewEventRepository(db.DB)
	calendarSourceRepo := postgres.NewCalendarSourceRepository(db.DB)
	choreRepo := postgres.NewChoreRepository(db.DB)
	assignmentRepo := postgres.NewChoreAssignmentRepository(db.DB)
	displayRepo := postgres.NewDisplayRepository(db.DB)
	photoRepo := postgres.NewPhotoRepository(db.DB)
	photoSourceRepo := postgres.NewPhotoSourceRepository(db.DB)

	// Photo storage
	store, err := storage.NewDiskStore(cfg.PhotoDir)
	if err != nil {
		l.Fatalf("Failed to open photo storage: %v", err)
	}

	// Token encryption
	cipher, err := secrets.NewCipher(cfg.TokenEncryptionKey)
	if err != nil {
		l.Fatalf("Failed to initialize token encryption: %v", err)
	}

	// Service layer
	svc := service.New(db.DB, l, store,
		householdRepo, memberRepo, eventRepo, calendarSourceRepo,
		choreRepo, assignmentRepo, displayRepo, photoRepo, photoSourceRepo,
	)

	// Sync machinery
	refresher := calendar.NewOAuthRefresher(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTokenURL)
	calendarSyncer := calendar.NewSyncer(calendarSourceRepo, eventRepo, refresher,
		func(accessToken string) calendar.Provider {
			return calendar.NewGoogleClient(accessToken)
		}, cipher, l)
	albumSyncer := photos.NewSyncer(photoSourceRepo, photoRepo, store,
		photos.NewAlbumClient(cfg.PhotosAPIToken), l)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Start the periodic sync sweep
	if _, err := svc.StartSyncScheduler(ctx, cfg.CronSpec, calendarSyncer, albumSyncer); err != nil {
		l.Fatalf("Failed to start sync scheduler: %v", err)
	}

	// Start HTTP server
	apiServer := api.NewServer(svc, l, cipher, calendarSyncer, albumSyncer, cfg.CronSecret)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("hearth started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("hearth stopped")
}
