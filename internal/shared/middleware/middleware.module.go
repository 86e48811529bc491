package middleware

import (
	"go.uber.org/fx"
	"mpi-linkage/internal/shared/middleware/security"
)

// Module regroupe les providers des middlewares partagés. Request logging
// and panic recovery already live on internal/infrastructure/logger's zap
// middleware; this module only adds CORS.
var Module = fx.Options(
	fx.Provide(security.CORSMiddleware),
)
