package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"Showdown/bracket"
	"Showdown/cache"
	"Showdown/config"
	"Showdown/database"
	"Showdown/jobs"
	"Showdown/middlewares"
	"Showdown/seed"
	"Showdown/storage"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Engine   *bracket.Engine
	Uploader storage.FileUploader
	Config   *config.Config

	jobs *cron.Cron
}

// ===============================
// SERVER INITIALIZATION
// ===============================
func (server *Server) Initialize(cfg *config.Config) {
	server.Config = cfg

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Printf("warning: sentry not initialized: %v", err)
		}
	}

	db, err := database.Open(cfg.DSN())
	if err != nil {
		log.Fatalf("Cannot connect to Postgres: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	server.DB = db

	// Redis init (safe failure)
	if err := cache.Init(cfg.Redis); err != nil {
		log.Printf("warning: could not connect to redis: %v", err)
	}

	if cfg.SeedDemo {
		if err := seed.Load(server.DB); err != nil {
			log.Printf("error seeding demo pools: %v", err)
		}
	}

	if cfg.R2.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		uploader, err := storage.NewR2Uploader(ctx, cfg.R2)
		cancel()
		if err != nil {
			log.Printf("warning: result image uploads disabled: %v", err)
		} else {
			server.Uploader = uploader
		}
	}

	server.Engine = bracket.NewEngine(server.DB, nil)

	scheduler, err := jobs.Start(server.DB, cfg.GaugeSchedule)
	if err != nil {
		log.Printf("warning: background jobs not scheduled: %v", err)
	}
	server.jobs = scheduler

	server.Mount()
}

// Mount builds the router over an already configured server.
func (server *Server) Mount() {
	server.Router = gin.Default()
	server.Router.Use(middlewares.CORSMiddleware(server.Config.AllowedOrigins))
	server.Router.Use(middlewares.RateLimitMiddleware())
	server.initializeRoutes()
}

func (server *Server) Run(addr string) {
	err := http.ListenAndServe(addr, server.Router)
	if server.jobs != nil {
		server.jobs.Stop()
	}
	sentry.Flush(2 * time.Second)
	log.Fatal(err)
}
