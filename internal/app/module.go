package app

import (
	"mpi-linkage/internal/algorithm"
	"mpi-linkage/internal/app/config"
	"mpi-linkage/internal/audit"
	"mpi-linkage/internal/infrastructure/database"
	"mpi-linkage/internal/infrastructure/database/mongodb"
	"mpi-linkage/internal/infrastructure/database/postgres"
	"mpi-linkage/internal/infrastructure/database/redis"
	"mpi-linkage/internal/infrastructure/logger"
	"mpi-linkage/internal/linkage"
	httpapi "mpi-linkage/internal/linkage/http"
	"mpi-linkage/internal/mpi"
	mpipostgres "mpi-linkage/internal/mpi/postgres"
	sharedmw "mpi-linkage/internal/shared/middleware"

	"go.uber.org/fx"
)

// NewAlgorithmCache wires the Redis-backed algorithm.Store.
func NewAlgorithmCache(client *redis.Client) *algorithm.Cache {
	return algorithm.NewCache(client, 0)
}

// NewMPIRepository wires the Postgres-backed mpi.Repository.
func NewMPIRepository(client *postgres.Client) mpi.Repository {
	return mpipostgres.NewRepository(client)
}

// NewAuditSink wires the MongoDB-backed decision-audit sink.
func NewAuditSink(client *mongodb.Client) *audit.Sink {
	return audit.NewSink(client)
}

// NewLinkageService wires the linkage core's orchestration service.
func NewLinkageService(repo mpi.Repository, store *algorithm.Cache, cfg *config.Config, sink *audit.Sink) *linkage.Service {
	return linkage.NewService(repo, store, cfg.GetAlgorithm().DefaultLabel, sink, cfg.GetServer().LinkTimeout)
}

// NewLinkageHandler wires the HTTP controller for the linkage core.
func NewLinkageHandler(service *linkage.Service, store *algorithm.Cache) *httpapi.Handler {
	return httpapi.NewHandler(service, store)
}

var AppModule = fx.Options(
	// Configuration (doit être fournie en premier)
	fx.Provide(config.NewConfig),
	fx.Provide(config.NewPostgresConfig),
	fx.Provide(config.NewRedisConfig),
	fx.Provide(config.NewMongoConfig),

	// Infrastructure
	database.Module,
	logger.Module,
	sharedmw.Module,

	// Domaine : MPI, algorithme, audit, linkage
	fx.Provide(NewMPIRepository),
	fx.Provide(NewAlgorithmCache),
	fx.Provide(NewAuditSink),
	fx.Provide(NewLinkageService),
	fx.Provide(NewLinkageHandler),

	// Router
	fx.Provide(NewRouter),

	// Application
	fx.Provide(NewApplication),

	// Lifecycle management
	fx.Invoke((*Application).Start),
)
