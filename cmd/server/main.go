// main wires the registry's dependencies and keeps the server lifecycle
// small. Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"specregistry/internal/audit"
	"specregistry/internal/platform/config"
	"specregistry/internal/platform/httpserver"
	"specregistry/internal/platform/logger"
	"specregistry/internal/platform/postgres"
	"specregistry/internal/platform/redis"
	refhandler "specregistry/internal/refmodel/handler"
	refservice "specregistry/internal/refmodel/service"
	refstore "specregistry/internal/refmodel/store"
	speccache "specregistry/internal/specification/cache"
	spechandler "specregistry/internal/specification/handler"
	specmetrics "specregistry/internal/specification/metrics"
	specservice "specregistry/internal/specification/service"
	specpg "specregistry/internal/specification/store/postgres"
	"specregistry/internal/token"
	httptransport "specregistry/internal/transport/http"
	userhandler "specregistry/internal/user/handler"
	userservice "specregistry/internal/user/service"
	userstore "specregistry/internal/user/store"
	grouphandler "specregistry/internal/usergroup/handler"
	groupservice "specregistry/internal/usergroup/service"
	groupstore "specregistry/internal/usergroup/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	auditor := audit.NewPublisher(sink, log)

	jwtService := token.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	refModelStore := refstore.NewPostgresStore(db)
	specStore := specpg.NewSpecificationStore(db)
	coreStore := specpg.NewCoreElementStore(db)
	extensionStore := specpg.NewExtensionElementStore(db)
	addReqStore := specpg.NewAdditionalRequirementStore(db)
	groupStore := groupstore.NewPostgresStore(db)
	accountStore := userstore.NewPostgresStore(db)

	specService := specservice.New(
		specStore, coreStore, extensionStore, addReqStore, refModelStore,
		specservice.WithLogger(log),
		specservice.WithAuditPublisher(auditor),
		specservice.WithListingCache(speccache.NewListing(redisClient, log)),
		specservice.WithMetrics(specmetrics.New()),
	)
	refService := refservice.New(refModelStore)
	groupService := groupservice.New(groupStore, specStore, accountStore,
		groupservice.WithLogger(log),
		groupservice.WithAuditPublisher(auditor),
	)
	accountService := userservice.New(accountStore, jwtService,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(auditor),
		userservice.WithRefreshTTL(cfg.RefreshTTL),
	)

	router := httptransport.NewRouter(log, jwtService,
		spechandler.New(specService, log),
		refhandler.New(refService, log),
		grouphandler.New(groupService, log),
		userhandler.New(accountService, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting specification registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
