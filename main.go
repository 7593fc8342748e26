package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"research-hand/auth"
	"research-hand/config"
	"research-hand/extraction"
	"research-hand/models"
	"research-hand/services"
	"research-hand/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	queriesCounter  prometheus.Counter
	failuresCounter prometheus.Counter
	resultsCounter  prometheus.Counter
)

func init() {
	queriesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "research_queries_total",
			Help: "Total number of research queries processed.",
		},
	)
	failuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "research_failures_total",
			Help: "Total number of research queries that ended in failure.",
		},
	)
	resultsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "result_records_saved_total",
			Help: "Total number of result records persisted.",
		},
	)
	prometheus.MustRegister(queriesCounter, failuresCounter, resultsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// ownerMiddleware löst die vom Identity-Service gesetzte Owner-ID auf und
// legt sie in den Request-Context. Ohne Header bleibt der Request anonym;
// die Services entscheiden dann selbst (AuthRequired bzw. Default-Key).
func ownerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ownerID := c.GetHeader("X-Owner-ID"); ownerID != "" {
			c.Request = c.Request.WithContext(auth.WithOwner(c.Request.Context(), ownerID))
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to research database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Query{}, &models.Credential{}, &models.ResultRecord{})

	// Setup Stores
	credStore := storage.NewCredentialStore(db)
	queryStore := storage.NewQueryStore(db)
	resultStore := storage.NewResultStore(db)

	// Setup Services
	owners := auth.ContextProvider{}
	credService := services.NewCredentialService(credStore, owners, logging)
	resultService := services.NewResultService(resultStore, owners, logging)

	clientFactory := func(apiKey string) (services.ExtractionClient, error) {
		return extraction.NewClient(apiKey, cfg.ExtractionBaseURL,
			time.Duration(cfg.ExtractionTimeoutSec)*time.Second, logging)
	}

	var archive services.ResultArchiver
	if cfg.ArchiveEnabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		archive = storage.NewS3Archive(s3Client, cfg, logging)
		logging.Info("Result archive enabled", zap.String("bucket", cfg.ArchiveS3Bucket))
	}

	researchService := services.NewResearchService(
		queryStore, resultService, credService, owners, clientFactory, archive, logging)
	tracker := services.NewSearchTracker()

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.Use(ownerMiddleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Routes
	setupResearchRoutes(router, researchService, resultService, tracker, logging)
	setupQueryRoutes(router, queryStore, owners, logging)
	setupCredentialRoutes(router, credService, logging)

	// Setup Cron
	if cfg.RetentionDays > 0 {
		cronScheduler := cron.New()
		retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
		cronScheduler.AddFunc(cfg.CleanupSchedule, func() {
			logging.Info("Running scheduled retention sweep...")
			deleted, err := resultService.CleanupOlderThan(context.Background(), retention)
			if err != nil {
				logging.Error("Retention sweep failed", zap.Error(err))
			} else {
				logging.Info("Retention sweep completed", zap.Int64("deleted_results", deleted))
			}
		})
		cronScheduler.Start()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupResearchRoutes(router *gin.Engine, research *services.ResearchService, results *services.ResultService, tracker *services.SearchTracker, log *zap.Logger) {
	rg := router.Group("/research")

	// Startet einen Suchlauf asynchron; Fortschritt und Protokoll sind über
	// /research/status abrufbar.
	rg.POST("/query", func(c *gin.Context) {
		var req struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'text' field is required."})
			return
		}

		ctx := c.Request.Context()
		tracker.Begin()
		go func() {
			defer tracker.Finish()
			result := research.ProcessQuery(context.WithoutCancel(ctx), req.Text,
				tracker.OnProgress, tracker.OnActivity)
			queriesCounter.Inc()
			if result.Data == nil {
				failuresCounter.Inc()
				log.Warn("Async research run failed", zap.String("text", req.Text))
			} else {
				resultsCounter.Add(float64(len(result.Data.Papers)))
				log.Info("Async research run completed",
					zap.Uint("search_id", result.SearchID),
					zap.Int("papers", len(result.Data.Papers)))
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"message": "Research query triggered."})
	})

	rg.GET("/status", func(c *gin.Context) {
		running, progress, activities := tracker.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"running":    running,
			"progress":   progress,
			"activities": activities,
		})
	})

	rg.POST("/cancel", func(c *gin.Context) {
		research.CancelCurrentSearch()
		c.JSON(http.StatusOK, gin.H{"message": "Current search cancelled."})
	})

	rg.GET("/results/:query_id", func(c *gin.Context) {
		queryID, err := strconv.ParseUint(c.Param("query_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query id"})
			return
		}
		records, err := results.ListByQuery(c.Request.Context(), uint(queryID))
		if err != nil {
			if errors.Is(err, services.ErrAuthRequired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "owner required"})
				return
			}
			log.Error("Database query for results failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, records)
	})
}

func setupQueryRoutes(router *gin.Engine, queries *storage.QueryStore, owners auth.OwnerProvider, log *zap.Logger) {
	rg := router.Group("/queries")

	rg.GET("/", func(c *gin.Context) {
		ownerID, err := owners.CurrentOwner(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "owner required"})
			return
		}
		limit := 50
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		list, err := queries.ListByOwner(c.Request.Context(), ownerID, limit)
		if err != nil {
			log.Error("Database query for queries failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
}

func setupCredentialRoutes(router *gin.Engine, creds *services.CredentialService, log *zap.Logger) {
	rg := router.Group("/credentials")

	rg.PUT("/", func(c *gin.Context) {
		var req struct {
			APIKey string `json:"api_key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. 'api_key' field is required."})
			return
		}
		if err := creds.Save(c.Request.Context(), req.APIKey); err != nil {
			if errors.Is(err, services.ErrAuthRequired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "owner required"})
				return
			}
			log.Error("Failed to save credential", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save credential"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "credential saved"})
	})

	rg.GET("/exists", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"exists": creds.Exists(c.Request.Context())})
	})
}
