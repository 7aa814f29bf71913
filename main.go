package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"civic311-be/classifier"
	"civic311-be/config"
	"civic311-be/controllers"
	"civic311-be/geo"
	"civic311-be/middlewares"
	"civic311-be/policy"
	"civic311-be/repository"
	"civic311-be/routes"
	"civic311-be/scanner"
	"civic311-be/services"
	"civic311-be/storage"
	authUtils "civic311-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var _ services.Store = (*repository.Store)(nil)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}
	logger := config.NewLogger(cfg)
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	redisClient := config.ConnectRedis(ctx, cfg, logger)

	store := repository.NewStore(client, db)
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to prepare collections", zap.Error(err))
	}

	pol, err := policy.New()
	if err != nil {
		logger.Fatal("failed to load access policy", zap.Error(err))
	}
	files, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.MaxFileSize, cfg.Upload.AllowedFileTypes)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}
	clamd := scanner.NewClamd(cfg.Upload.ClamAVHost, cfg.Upload.ClamAVPort, cfg.Upload.ScanTimeout)

	audit := services.NewAuditLog(store)
	triage := services.NewTriageDispatcher(classifier.Heuristic{}, audit, cfg.Triage.QueueSize, logger)
	users := services.NewUserService(store, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, logger)
	requests := services.NewRequestService(store, audit, geo.NewChecker(store, logger), pol, triage, logger)
	directory := services.NewDirectory(store, pol, cfg.DefaultPageSize, cfg.MaxPageSize)
	comments := services.NewCommentService(store, pol)
	attachments := services.NewAttachmentService(store, files, clamd, pol, logger)
	admin := services.NewAdminService(store, audit, authUtils.NewSealer(cfg.Auth.JWTSecret), pol)

	if err := users.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	window := cfg.RateLimit.Window
	router := routes.NewRouter(routes.Handlers{
		Auth: controllers.NewAuthController(users, controllers.CookieOptions{
			Domain:     cfg.Domain,
			Secure:     cfg.IsProduction(),
			MaxAge:     cfg.Auth.AccessTokenTTL,
			Production: cfg.IsProduction(),
		}),
		Requests:    controllers.NewRequestController(requests, directory, triage),
		Comments:    controllers.NewCommentController(comments),
		Attachments: controllers.NewAttachmentController(attachments),
		Admin:       controllers.NewAdminController(admin),
		Public:      controllers.NewPublicController(users, requests),
		Health:      controllers.NewHealthController(store),

		Authenticate:      middlewares.AuthMiddleware(users),
		AuthLimit:         middlewares.RateLimiter(redisClient, cfg.RateLimit.AuthLimit, window, logger),
		PublicCreateLimit: middlewares.RateLimiter(redisClient, cfg.RateLimit.CreateLimit, window, logger),
		PublicStatusLimit: middlewares.RateLimiter(redisClient, cfg.RateLimit.StatusLimit, window, logger),
	}, routes.RouterOptions{
		CORSOrigins:        cfg.CORSOrigins,
		MaxMultipartMemory: cfg.Upload.MaxFileSize,
	}, logger)

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		triage.Run(ctx, cfg.Triage.Workers)
	}()
	go func() {
		defer workers.Done()
		attachments.RunRescanner(ctx, cfg.Upload.RescanInterval)
	}()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failure", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	workers.Wait()
	_ = redisClient.Close()
	if err := client.Disconnect(shutdownCtx); err != nil {
		logger.Error("MongoDB disconnect", zap.Error(err))
	}
}
