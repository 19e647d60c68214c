package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/Additional-Code/atelier/internal/transport/http/order"
	ratetransport "github.com/Additional-Code/atelier/internal/transport/http/rate"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	ratetransport.Module,
)
