package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/config"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/handlers"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/middleware"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/services"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/cache"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting forum API server...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	userEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents)
	defer userEventsProducer.Close()

	relationshipEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.RelationshipEvents)
	defer relationshipEventsProducer.Close()

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	requestRepo := repository.NewFollowRequestRepository(db.DB)
	inboxRepo := repository.NewInboxRepository(db.DB)

	notifier := services.NewEventNotifier(relationshipEventsProducer, logger)
	statusCache := services.NewRedisStatusCache(redisClient, cfg.Graph.StatusCacheTTL, logger)

	userService := services.NewUserService(userRepo, userEventsProducer, logger)
	relationshipService := services.NewRelationshipService(followRepo, userRepo, notifier, &cfg.Graph, logger)
	requestService := services.NewFollowRequestService(requestRepo, followRepo, notifier, logger)
	inboxService := services.NewInboxService(inboxRepo)
	statusService := services.NewRelationshipStatusService(relationshipService, requestService, statusCache, logger)

	userHandler := handlers.NewUserHandler(userService, cfg.JWT.Secret)
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService, requestService, inboxService, statusService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api := router.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.GET("/search", userHandler.SearchUsers)
			users.GET("/:id", userHandler.GetProfile)
			users.GET("/:id/followers", relationshipHandler.GetFollowers)
			users.GET("/:id/following", relationshipHandler.GetFollowing)
			users.GET("/:id/following/paged", relationshipHandler.ListFollowingPage)
		}

		protected := api.Group("")
		protected.Use(middleware.NewJWTAuth(&middleware.JWTConfig{Secret: cfg.JWT.Secret}))
		{
			protected.PUT("/users/profile", userHandler.UpdateProfile)
			protected.GET("/users/:id/relationship", relationshipHandler.RelationshipStatus)

			protected.POST("/users/follow", relationshipHandler.Follow)
			protected.DELETE("/users/unfollow/:id", relationshipHandler.Unfollow)

			protected.POST("/follow-requests", relationshipHandler.SendFollowRequest)
			protected.DELETE("/follow-requests/:id", relationshipHandler.CancelFollowRequest)
			protected.POST("/follow-requests/:id/accept", relationshipHandler.AcceptFollowRequest)
			protected.POST("/follow-requests/:id/decline", relationshipHandler.DeclineFollowRequest)

			protected.GET("/inbox", relationshipHandler.GetInbox)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	if err := os.MkdirAll("configs", 0755); err != nil {
		log.Printf("Failed to create configs directory: %v", err)
	}

	configPath := "configs/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "forumuser"
  password: "forumpass"
  dbname: "forum"
  sslmode: "disable"
  max_open_conns: 100
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 100
  min_idle_conns: 10

kafka:
  brokers:
    - "localhost:9092"
  topics:
    user_events: "user-events"
    relationship_events: "relationship-events"

jwt:
  secret: "your-secret-key-change-in-production"
  expire_time: 24h

graph:
  fanout_list_limit: 30
  view_list_limit: 50
  page_size: 20
  status_cache_ttl: 5m`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
