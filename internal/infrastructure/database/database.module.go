package database

import (
	"go.uber.org/fx"
	"mpi-linkage/internal/infrastructure/database/mongodb"
	"mpi-linkage/internal/infrastructure/database/postgres"
	"mpi-linkage/internal/infrastructure/database/redis"
)

var Module = fx.Options(

	// Modules database
	postgres.Module,
	redis.Module,
	mongodb.Module,
)
