package rate

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/Additional-Code/atelier/internal/presentation/http/response"
	service "github.com/Additional-Code/atelier/internal/service/rate"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/atelier/transport/http/rate")

// Handler exposes the rate views over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a rate Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/rates")
	g.GET("", h.current)
	g.GET("/gold", h.gold)
	g.GET("/exchange", h.exchange)
}

func (h *Handler) current(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "rates.current")
	defer span.End()

	rates, err := h.svc.Current(ctx)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(rates).Build()
}

func (h *Handler) gold(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "rates.gold")
	defer span.End()

	gold, err := h.svc.Gold(ctx)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(gold).Build()
}

func (h *Handler) exchange(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "rates.exchange")
	defer span.End()

	exchange, err := h.svc.Exchange(ctx)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(exchange).Build()
}
