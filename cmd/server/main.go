package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offerhive/internal/config"
	"offerhive/internal/handlers"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/services"
	"offerhive/internal/utils"
	"offerhive/pkg/cache"
	"offerhive/pkg/database"
	"offerhive/pkg/logger"
	"offerhive/pkg/mailer"
	"offerhive/pkg/sms"
	"offerhive/pkg/storage"
	"offerhive/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
		Caller: cfg.App.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongodb")
	}
	defer db.Close()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongodb.EnsureIndexes(indexCtx, db.Database); err != nil {
		cancel()
		log.WithError(err).Fatal("failed to create indexes")
	}
	cancel()

	appCache := buildCache(cfg, log)
	smsProvider := buildSMSProvider(cfg, log)
	store := buildStorage(cfg, log)
	mail := mailer.NewSMTPMailer(
		cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.FromEmail, cfg.SMTP.FromName,
	)

	// Repositories
	tenantRepo := mongodb.NewTenantRepository(db.Database)
	userRepo := mongodb.NewUserRepository(db.Database)
	offerRepo := mongodb.NewOfferRepository(db.Database)
	taskRepo := mongodb.NewTaskRepository(db.Database)
	ledgerRepo := mongodb.NewLedgerRepository(db.Database)
	referralRepo := mongodb.NewReferralRepository(db.Database)
	otpRepo := mongodb.NewOTPRepository(db.Database)
	sessionRepo := mongodb.NewSessionRepository(db.Database)

	// Services
	tenantService := services.NewTenantService(tenantRepo, appCache, log)
	ledgerService := services.NewLedgerService(ledgerRepo, db, cfg.App.Currency, log)
	referralService := services.NewReferralService(referralRepo, userRepo, ledgerRepo, ledgerService, log)
	offerService := services.NewOfferService(offerRepo, log)
	taskService := services.NewTaskService(taskRepo, offerRepo, ledgerService, referralService, tenantService, db, log)
	authService := services.NewAuthService(userRepo, otpRepo, sessionRepo, referralService, ledgerService,
		appCache, smsProvider, mail, cfg.Security, log)

	h := &routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Offer:   handlers.NewOfferHandler(offerService),
		Task:    handlers.NewTaskHandler(taskService, store),
		Manager: handlers.NewManagerHandler(taskService),
		User:    handlers.NewUserHandler(authService, ledgerService, referralService),
		Admin:   handlers.NewAdminHandler(ledgerService, offerService),
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if len(cfg.Security.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			log.WithError(err).Fatal("invalid trusted proxies")
		}
	}
	routes.SetupRoutes(router, h, tenantService, cfg.Security, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// buildCache prefers redis and falls back to the in-process cache when it
// is disabled, for single-node development setups.
func buildCache(cfg *config.Config, log *logger.Logger) cache.Cache {
	if cfg.Redis.Enabled {
		c, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		return c
	}

	log.Warn("redis disabled, using in-process cache")
	return cache.NewMemoryCache(utils.TenantCacheCapacity, time.Now)
}

func buildSMSProvider(cfg *config.Config, log *logger.Logger) sms.Provider {
	switch cfg.SMS.Provider {
	case "aws_sns":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize sns")
		}
		return provider
	default:
		return sms.NewTwilioProvider(
			cfg.SMS.Twilio.AccountSID,
			cfg.SMS.Twilio.AuthToken,
			cfg.SMS.Twilio.FromNumber,
		)
	}
}

func buildStorage(cfg *config.Config, log *logger.Logger) storage.Provider {
	switch cfg.Storage.Provider {
	case "s3":
		store, err := storage.NewAWSS3Storage(
			cfg.Storage.AWS.Region,
			cfg.Storage.AWS.Bucket,
			cfg.Storage.AWS.CDNDomain,
		)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize s3 storage")
		}
		return store
	default:
		store, err := storage.NewLocalStorage(cfg.Storage.Local.BasePath, cfg.Storage.Local.BaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize local storage")
		}
		return store
	}
}
