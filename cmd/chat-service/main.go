package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/catalog"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/chat"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/config"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/database"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/kafka"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/middleware"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geocode"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/intake"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/llm"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/matching"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/terminology"
)

func main() {
	logger.Init()
	cfg := config.Load()

	synonyms, err := terminology.Load(cfg.SynonymCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load synonym catalog")
	}

	redisClient := database.GetRedis()

	var geocoder geocode.Geocoder = geocode.NewGoogleClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout)
	geocoder = geocode.NewCached(geocoder, redisClient, cfg.GeocodeCacheTTL)

	builder := intake.NewBuilder(geocoder, synonyms)
	engine := matching.NewEngine(cfg.MatchRadiusMiles, cfg.MaxMatches)

	var source catalog.Source
	if cfg.CatalogSource == "file" {
		source = catalog.FileSource{Path: cfg.CatalogFile}
	} else {
		db, err := database.GetPostgres()
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to postgres")
		}
		repo := catalog.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate catalog tables")
		}
		source = repo
	}

	producer := kafka.NewProducer(cfg.LeadEventTopic)
	defer producer.Close()

	store := chat.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	completer := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	orchestrator := chat.NewOrchestrator(store, completer, builder, engine, source, producer)
	handler := chat.NewHandler(orchestrator)

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	router.Use(middleware.RateLimit(20, 40))
	handler.Register(router)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Chat service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start chat service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down chat service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Chat service forced to shutdown")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Error("Failed to close redis connection")
	}
	logger.Log.Info("Chat service stopped")
}
