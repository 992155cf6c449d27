package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/habitleague-api/internal/app"
	"github.com/yourusername/habitleague-api/internal/handler"
	"github.com/yourusername/habitleague-api/internal/middleware"
	"github.com/yourusername/habitleague-api/pkg/logger"
)

// setupRoutes регистрирует все маршруты API
func setupRoutes(router *gin.Engine, a *app.App, log *logger.Logger) {
	base := log.Component("HTTP")

	challengeHandler := handler.NewChallengeHandler(a.Challenges, base)
	evidenceHandler := handler.NewEvidenceHandler(a.Locations, a.Evidence, base)
	achievementHandler := handler.NewAchievementHandler(a.Achievements, base)
	lifecycleHandler := handler.NewLifecycleHandler(a.Engine, base)
	userHandler := handler.NewUserHandler(a.Users, base)
	healthHandler := handler.NewHealthHandler(map[string]handler.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		},
	})

	authMiddleware := middleware.NewAuthMiddleware(a.JWT)
	rateLimiter := middleware.NewRateLimiter(a.Redis, base)
	challengeParam := middleware.ExtractUintParam("id", "challengeID")

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Публичные маршруты; /challenges принимает category, sort=popular, open=true
		api.GET("/challenges", challengeHandler.ListChallenges)
		api.GET("/challenges/:id", challengeParam, challengeHandler.GetChallenge)
		api.GET("/challenges/:id/pool", challengeParam, lifecycleHandler.PoolStatus)
		api.GET("/challenges/:id/participants", challengeParam, challengeHandler.ListParticipants)
		api.GET("/achievements", achievementHandler.Catalog)

		authed := api.Group("")
		authed.Use(authMiddleware.RequireAuth())
		{
			authed.GET("/users/me", userHandler.Me)
			authed.GET("/users/me/challenges", challengeHandler.ListMyChallenges)
			authed.GET("/users/me/achievements", achievementHandler.Mine)
			authed.GET("/users/me/achievements/stats", achievementHandler.Stats)
			authed.GET("/users/me/payments/stats", challengeHandler.PaymentStats)
			authed.GET("/users/me/evidence/stats", evidenceHandler.Stats)

			authed.POST("/challenges", challengeHandler.CreateChallenge)

			member := authed.Group("/challenges/:id")
			member.Use(challengeParam)
			{
				member.POST("/join", challengeHandler.JoinChallenge)
				member.POST("/pay", challengeHandler.PayEntryFee)
				member.POST("/penalty", challengeHandler.PayPenalty)
				member.GET("/payments", challengeHandler.ListPayments)
				member.GET("/membership", challengeHandler.GetMembership)

				member.POST("/location", evidenceHandler.RegisterLocation)
				member.GET("/location", evidenceHandler.GetLocation)
				member.POST("/location/check", evidenceHandler.CheckProximity)

				member.POST("/evidence", rateLimiter.Limit(middleware.EvidenceRateLimitConfig()), evidenceHandler.SubmitEvidence)
				member.GET("/evidence", evidenceHandler.ListEvidence)
				member.GET("/evidence/today", evidenceHandler.SubmittedToday)
			}
		}

		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.POST("/lifecycle/run", rateLimiter.Limit(middleware.AdminRateLimitConfig()), lifecycleHandler.RunDailyCheck)
			admin.POST("/lifecycle/reconcile", rateLimiter.Limit(middleware.AdminRateLimitConfig()), lifecycleHandler.Reconcile)
			admin.GET("/challenges/:id/checks", challengeParam, lifecycleHandler.DailyChecks)
			admin.GET("/challenges/:id/distributions", challengeParam, lifecycleHandler.Distributions)
			admin.GET("/distributions/unpaid/export", lifecycleHandler.ExportUnpaid)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "error_type": "not_found"})
	})
}
