package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/app"
	"github.com/yourusername/habitleague-api/internal/config"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
	"github.com/yourusername/habitleague-api/pkg/logger"
)

func main() {
	// .env нужен только для локального запуска
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	mainLog := log.Component("Main")
	mainLog.WithField("config_path", configPath).Info("Конфигурация загружена")

	if cfg.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, log.Logger, app.Options{Migrate: true, MigrationsDir: "migrations"})
	if err != nil {
		mainLog.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	// Каталог достижений заполняется один раз при старте
	if _, err := a.Achievements.SeedCatalog(ctx); err != nil {
		mainLog.WithError(err).Error("Не удалось заполнить каталог достижений")
	}

	a.Dispatcher.Start()

	var scheduler *lifecycle.Scheduler
	if cfg.Lifecycle.Enabled {
		scheduler, err = lifecycle.NewScheduler(a.Engine, nil)
		if err != nil {
			mainLog.WithError(err).Fatal("Failed to create lifecycle scheduler")
		}
		scheduler.Start()
		mainLog.WithField("next_run", scheduler.NextRun()).Info("Планировщик ежедневного прохода запущен")
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log.Component("HTTP")))

	if cfg.IsDebug() {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			mainLog.WithError(err).Warn("Failed to set trusted proxies")
		}
	} else if err := router.SetTrustedProxies(nil); err != nil {
		mainLog.WithError(err).Warn("Failed to set trusted proxies")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	setupRoutes(router, a, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		mainLog.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	mainLog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.WithError(err).Error("Server forced to shutdown")
	}

	// Планировщик дожидается текущего прохода, затем диспетчер дочищает очередь
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			mainLog.WithError(err).Warn("Планировщик не остановился вовремя")
		}
	}
	if err := a.Dispatcher.Stop(shutdownCtx); err != nil {
		mainLog.WithError(err).Warn("Очередь достижений не дочищена")
	}

	cancel()
	mainLog.Info("Server exited properly")
}

// requestLogger пишет одну строку на запрос
func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request")
			return
		}
		entry.Debug("request")
	}
}
