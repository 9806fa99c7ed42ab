package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"jetfeed-backend/internal/common/config"
	"jetfeed-backend/internal/common/logger"
	"jetfeed-backend/internal/common/middleware"
	engagementhttp "jetfeed-backend/internal/features/engagement/delivery/http"
	engagementredis "jetfeed-backend/internal/features/engagement/repository/redis"
	engagementservice "jetfeed-backend/internal/features/engagement/service"
	notificationhttp "jetfeed-backend/internal/features/notification/delivery/http"
	notificationredis "jetfeed-backend/internal/features/notification/repository/redis"
	notificationservice "jetfeed-backend/internal/features/notification/service"
	posthttp "jetfeed-backend/internal/features/post/delivery/http"
	postredis "jetfeed-backend/internal/features/post/repository/redis"
	postservice "jetfeed-backend/internal/features/post/service"
	premiumhttp "jetfeed-backend/internal/features/premium/delivery/http"
	premiumredis "jetfeed-backend/internal/features/premium/repository/redis"
	premiumservice "jetfeed-backend/internal/features/premium/service"
	socialhttp "jetfeed-backend/internal/features/social/delivery/http"
	socialredis "jetfeed-backend/internal/features/social/repository/redis"
	socialservice "jetfeed-backend/internal/features/social/service"
	userhttp "jetfeed-backend/internal/features/user/delivery/http"
	userredis "jetfeed-backend/internal/features/user/repository/redis"
	userservice "jetfeed-backend/internal/features/user/service"
	"jetfeed-backend/internal/platform/media"
	"jetfeed-backend/internal/platform/payment"
	redisplatform "jetfeed-backend/internal/platform/redis"
)

// @title           Jetfeed API
// @version         1.0
// @description     Backend for the Jetfeed social feed. Authenticated endpoints expect a Bearer identity token.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg := config.Load()

	logger.Init("jetfeed-backend", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redisplatform.Open(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Redis connection established")

	mediaClient := media.NewClient(cfg.Media.APIBaseURL, cfg.Media.PublicURL)
	paymentClient := payment.NewClient(cfg.Payment.GatewayURL)

	userRepository := userredis.NewUserRepository(redisClient)
	postRepository := postredis.NewPostRepository(redisClient)
	followRepository := socialredis.NewFollowRepository(redisClient)
	engagementRepository := engagementredis.NewEngagementRepository(redisClient)
	notificationRepository := notificationredis.NewNotificationRepository(redisClient)
	premiumRepository := premiumredis.NewPremiumRepository(redisClient)
	propagationQueue := userredis.NewPropagationQueue(redisClient)

	userSvc := userservice.NewUserService(userRepository, postRepository, propagationQueue, mediaClient)
	postSvc := postservice.NewPostService(postRepository, userRepository, mediaClient)
	socialSvc := socialservice.NewSocialService(followRepository, userRepository)
	engagementSvc := engagementservice.NewEngagementService(engagementRepository, postRepository)
	notificationSvc := notificationservice.NewNotificationService(notificationRepository, userRepository)
	premiumSvc := premiumservice.NewPremiumService(premiumRepository, userRepository, paymentClient, cfg.Payment.WebhookSecret)

	propagator := userservice.NewPropagator(userRepository, postRepository, propagationQueue)
	propagator.Start()
	defer propagator.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")

	premiumHandler := premiumhttp.NewPremiumHandler(premiumSvc)
	premiumHandler.RegisterWebhook(v1)

	authed := v1.Group("")
	authed.Use(middleware.RequireIdentity(cfg.Identity.JWTSecret))
	{
		userhttp.NewUserHandler(userSvc).RegisterRoutes(authed)
		socialhttp.NewSocialHandler(socialSvc).RegisterRoutes(authed)
		posthttp.NewPostHandler(postSvc).RegisterRoutes(authed)
		engagementhttp.NewEngagementHandler(engagementSvc).RegisterRoutes(authed)
		notificationhttp.NewNotificationHandler(notificationSvc).RegisterRoutes(authed)
		premiumHandler.RegisterRoutes(authed)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "jetfeed-backend",
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Info().Msg("Server exited")
}
