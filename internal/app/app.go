package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/clock"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/logger"
	"github.com/Additional-Code/atelier/internal/messaging"
	"github.com/Additional-Code/atelier/internal/migration"
	"github.com/Additional-Code/atelier/internal/observability"
	"github.com/Additional-Code/atelier/internal/ordernumber"
	"github.com/Additional-Code/atelier/internal/ratefeed"
	repositoryorder "github.com/Additional-Code/atelier/internal/repository/order"
	repositoryrate "github.com/Additional-Code/atelier/internal/repository/rate"
	grpcserver "github.com/Additional-Code/atelier/internal/server/grpc"
	httpserver "github.com/Additional-Code/atelier/internal/server/http"
	serviceorder "github.com/Additional-Code/atelier/internal/service/order"
	servicerate "github.com/Additional-Code/atelier/internal/service/rate"
	transporthttp "github.com/Additional-Code/atelier/internal/transport/http"
	"github.com/Additional-Code/atelier/internal/worker"
	workerorder "github.com/Additional-Code/atelier/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	clock.Module,
	cache.Module,
	database.Module,
	migration.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	ordernumber.Module,
	ratefeed.Module,
	repositoryorder.Module,
	repositoryrate.Module,
	serviceorder.Module,
	servicerate.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
