/*
Package main is the entry point for the StudyHive server.

It loads configuration, initializes the global logger, opens the record store
(JSON files or PostgreSQL), wires the domain services and the live push Hub,
serves HTTP, and shuts everything down on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyhive/internal/app/chat"
	"studyhive/internal/app/db"
	"studyhive/internal/app/live"
	"studyhive/internal/app/notification"
	"studyhive/internal/app/review"
	"studyhive/internal/app/seed"
	"studyhive/internal/app/storage"
	"studyhive/internal/app/studyjam"
	"studyhive/internal/app/user"
	"studyhive/internal/configs"
	"studyhive/internal/handler"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/pow"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Str("timezone", cfg.Location().String()).
		Bool("s3_enabled", cfg.S3Enabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open record store")
	}
	defer backend.Close()
	logx.Info("Record store ready", "backend", backend.Kind())

	storageService, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}
	if !storageService.Enabled() {
		logx.Warn("Object storage not configured; attachments and avatar uploads are disabled")
	}

	users := db.NewCollection(backend, db.UsersCollection, user.EmailKey)
	jams := db.NewCollection[studyjam.StudyJam](backend, db.StudyJamsCollection, nil)
	chats := db.NewCollection[chat.Chat](backend, db.ChatsCollection, nil)
	messages := db.NewCollection[chat.Message](backend, db.MessagesCollection, nil)
	notes := db.NewCollection[notification.Notification](backend, db.NotificationsCollection, nil)
	reviews := db.NewCollection[review.Review](backend, db.ReviewsCollection, nil)

	hub := live.NewHub()

	userService := user.NewService(users)
	notificationService := notification.NewService(notes, hub)
	chatService := chat.NewService(chats, messages, jams, userService, notificationService, hub)
	studyJamService := studyjam.NewService(jams, userService, notificationService, chatService, cfg.Location())
	reviewService := review.NewService(reviews, userService, notificationService)

	powManager := pow.NewManager(cfg.PowDifficulty)

	deps := &handler.AppDeps{
		Config:         cfg,
		Users:          userService,
		StudyJams:      studyJamService,
		Notifications:  notificationService,
		Chats:          chatService,
		Reviews:        reviewService,
		StorageService: storageService,
		Hub:            hub,
		Pow:            powManager,
		Seeder:         seed.New(users, jams, cfg.Location()),
	}

	router, closeLimiters := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("StudyHive Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	powManager.Close()
	closeLimiters()

	logx.Info("Server gracefully stopped.")
}

func openBackend(cfg *configs.AppConfig) (*db.Backend, error) {
	if cfg.UsePostgres() {
		return db.NewPostgresBackend(cfg.DatabaseDSN)
	}
	return db.NewFileBackend(cfg.DataDir)
}
