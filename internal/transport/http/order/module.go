package order

import "go.uber.org/fx"

// Module wires the /orders routes onto the shared Echo instance.
var Module = fx.Module("http_orders",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
