package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redislib "github.com/redis/go-redis/v9"
	mongolib "go.mongodb.org/mongo-driver/mongo"

	"github.com/parcelgate/shipping-agent/internal/api"
	"github.com/parcelgate/shipping-agent/internal/core/ports"
	"github.com/parcelgate/shipping-agent/internal/core/service"
	"github.com/parcelgate/shipping-agent/internal/infrastructure/ai"
	"github.com/parcelgate/shipping-agent/internal/infrastructure/config"
	"github.com/parcelgate/shipping-agent/internal/infrastructure/db/memory"
	mongodb "github.com/parcelgate/shipping-agent/internal/infrastructure/db/mongo"
	redisdb "github.com/parcelgate/shipping-agent/internal/infrastructure/db/redis"
	"github.com/parcelgate/shipping-agent/internal/infrastructure/shippo"
	"github.com/parcelgate/shipping-agent/internal/payment"
	"github.com/parcelgate/shipping-agent/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		log := logger.Get()
		log.Fatal().Err(err).Msg("loading configuration")
	}

	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})
	log := logger.Get()

	if cfg.Payment.Recipient == "" {
		log.Fatal().Msg("PAYMENT_ADDRESS is required")
	}
	if cfg.Shippo.Token == "" {
		log.Fatal().Msg("SHIPPO_API_TOKEN is required")
	}

	// --- Optional dependencies ---
	var (
		mongoClient *mongolib.Client
		mongoDB     *mongolib.Database
	)
	if cfg.Mongo.URI != "" {
		mongoClient, mongoDB, err = mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to mongodb")
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Error().Err(err).Msg("disconnecting mongodb")
			}
		}()
		log.Info().Msg("mongodb connected, label history persisted")
	}

	var redisClient *redislib.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redisdb.Connect(ctx, redisdb.Config{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected, payment replay marking enabled")
	}

	// --- Core services ---
	llm := ai.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	parser := service.NewItemParserService(llm, log)
	advisor := service.NewAdvisorService(llm, log)
	rates := shippo.NewClient(cfg.Shippo.BaseURL, cfg.Shippo.Token, cfg.Shippo.Carrier, log)

	var labels ports.LabelRepository
	if mongoDB != nil {
		labels = mongodb.NewLabelRepository(mongoDB)
	} else {
		labels = memory.NewLabelRepository()
	}

	shippingService := service.NewShippingService(parser, rates, advisor, labels, log)

	// --- Payment gates ---
	paymentCfg := payment.Config{
		Price:         cfg.Payment.Price,
		Network:       cfg.Payment.Network,
		Recipient:     cfg.Payment.Recipient,
		TokenContract: cfg.Payment.TokenContract,
	}

	strict := payment.NewFacilitatorVerifier(cfg.Payment.FacilitatorURL, log)

	var marker payment.ReplayMarker
	if redisClient != nil {
		marker = redisdb.NewReplayMarker(redisClient)
	}
	weak := payment.NewTxHashVerifier(marker, log)

	e := api.NewRouter(api.Deps{
		Service:       shippingService,
		PaymentConfig: paymentCfg,
		Strict:        strict,
		Weak:          weak,
		JWTSecret:     cfg.JWTSecret,
		Mongo:         mongoDB,
		Redis:         redisClient,
		Logger:        log,
	})

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("network", cfg.Payment.Network).
			Str("price", cfg.Payment.Price).
			Msg("shipping agent listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
