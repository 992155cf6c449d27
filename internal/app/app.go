// Package app собирает зависимости процесса: подключения, репозитории, сервисы
// и движок жизненного цикла. Используется и HTTP-сервером, и CLI.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yourusername/habitleague-api/internal/config"
	pgRepo "github.com/yourusername/habitleague-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/habitleague-api/internal/repository/redis"
	"github.com/yourusername/habitleague-api/internal/service"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
	"github.com/yourusername/habitleague-api/internal/service/payment"
	"github.com/yourusername/habitleague-api/pkg/auth"
	"github.com/yourusername/habitleague-api/pkg/database"
)

// App содержит собранные зависимости процесса
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  redis.UniversalClient
	Log    *logrus.Logger

	JWT          *auth.JWTService
	Users        *service.UserService
	Challenges   *service.ChallengeService
	Locations    *service.LocationService
	Evidence     *service.EvidenceService
	Achievements *service.AchievementService
	Dispatcher   *service.AchievementDispatcher
	Engine       *lifecycle.Engine
}

// Options управляет тем, что делает Build помимо сборки
type Options struct {
	// Migrate применяет миграции из MigrationsDir перед сборкой
	Migrate       bool
	MigrationsDir string
}

// Build открывает подключения и собирает сервисы. Диспетчер достижений
// создаётся, но не запускается: это делает вызывающий код.
func Build(ctx context.Context, cfg *config.Config, log *logrus.Logger, opts Options) (*App, error) {
	entry := log.WithField("component", "App")
	base := logrus.NewEntry(log)

	loc, err := cfg.Lifecycle.Location()
	if err != nil {
		return nil, fmt.Errorf("lifecycle timezone: %w", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.IsDebug(), database.DefaultPoolOptions())
	if err != nil {
		return nil, err
	}
	if opts.Migrate {
		dir := opts.MigrationsDir
		if dir == "" {
			dir = "migrations"
		}
		if err := database.MigrateDB(db, dir, entry); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	entry.Info("[App] Подключение к Redis установлено")

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		return nil, fmt.Errorf("jwt service: %w", err)
	}

	// Репозитории
	tx := pgRepo.NewTransactor(db)
	userRepo := pgRepo.NewUserRepo(db)
	challengeRepo := pgRepo.NewChallengeRepo(db)
	memberRepo := pgRepo.NewChallengeMemberRepo(db)
	locationRepo := pgRepo.NewLocationRepo(db)
	evidenceRepo := pgRepo.NewEvidenceRepo(db)
	checkRepo := pgRepo.NewDailyCheckRepo(db)
	distributionRepo := pgRepo.NewPrizeDistributionRepo(db)
	achievementRepo := pgRepo.NewAchievementRepo(db)
	paymentRepo := pgRepo.NewPaymentRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("cache repo: %w", err)
	}

	// Внешние сервисы (симуляции)
	gateway := payment.NewGateway(payment.Config{
		ChargeSuccessRate: cfg.Payment.ChargeSuccessRate,
		PayoutSuccessRate: cfg.Payment.PayoutSuccessRate,
		Seed:              cfg.Payment.Seed,
	})
	validator := service.NewSimulatedImageValidator(cfg.Validation.AcceptRate, cfg.Validation.Seed)

	clock := service.NewClock(loc)

	achievements := service.NewAchievementService(achievementRepo, clock, base)
	dispatcher := service.NewAchievementDispatcher(achievements, service.DispatcherConfig{
		Workers:   cfg.Notifier.Workers,
		QueueSize: cfg.Notifier.QueueSize,
		Timeout:   cfg.Notifier.Timeout,
	}, base)

	engine, err := lifecycle.NewEngine(&lifecycle.Config{
		CronSpec:     cfg.Lifecycle.CronSpec,
		Location:     loc,
		RunLockTTL:   cfg.Lifecycle.RunLockTTL,
		PoolCacheTTL: cfg.Lifecycle.PoolCacheTTL,
	}, &lifecycle.Dependencies{
		Transactor:    tx,
		Challenges:    challengeRepo,
		Members:       memberRepo,
		Evidence:      evidenceRepo,
		Checks:        checkRepo,
		Distributions: distributionRepo,
		Cache:         cacheRepo,
		Payouts:       gateway,
		Notifier:      dispatcher,
		Log:           base,
	})
	if err != nil {
		return nil, fmt.Errorf("lifecycle engine: %w", err)
	}

	return &App{
		Config:       cfg,
		DB:           db,
		Redis:        redisClient,
		Log:          log,
		JWT:          jwtService,
		Users:        service.NewUserService(userRepo, jwtService, base),
		Challenges:   service.NewChallengeService(tx, challengeRepo, memberRepo, paymentRepo, gateway, dispatcher, clock, base),
		Locations:    service.NewLocationService(tx, memberRepo, locationRepo, clock, base),
		Evidence:     service.NewEvidenceService(tx, memberRepo, locationRepo, evidenceRepo, validator, clock, base),
		Achievements: achievements,
		Dispatcher:   dispatcher,
		Engine:       engine,
	}, nil
}

// Close закрывает подключения
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.WithError(err).Warn("[App] Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.WithError(err).Warn("[App] Ошибка закрытия PostgreSQL")
			}
		}
	}
}
