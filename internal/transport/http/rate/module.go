package rate

import "go.uber.org/fx"

// Module wires the /rates routes onto the shared Echo instance.
var Module = fx.Module("http_rates",
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)
