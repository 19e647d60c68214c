package seeder

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/entity"
	ordersvc "github.com/Additional-Code/atelier/internal/service/order"
)

// Module provides the Seeder to Fx.
var Module = fx.Provide(New)

// Seeder writes sample orders for local/dev setups. Orders go through the
// order service so numbers are allocated the same way as in production.
type Seeder struct {
	orders *ordersvc.Service
	logger *zap.Logger
}

// New constructs a Seeder.
func New(orders *ordersvc.Service, logger *zap.Logger) *Seeder {
	return &Seeder{orders: orders, logger: logger}
}

// Orders seeds one finalized order and one draft unless orders already exist.
func (s *Seeder) Orders(ctx context.Context) error {
	page, err := s.orders.List(ctx, dto.OrderListQuery{Limit: 1})
	if err != nil {
		return err
	}
	if page.Total > 0 {
		s.log("orders already present; skipping seed", zap.Int("total", page.Total))
		return nil
	}

	samples := []struct {
		req       dto.OrderRequest
		temporary bool
	}{
		{req: finalizedSample(), temporary: false},
		{req: draftSample(), temporary: true},
	}

	for _, sample := range samples {
		res, err := s.orders.Create(ctx, sample.req, sample.temporary)
		if err != nil {
			return err
		}
		s.log("seeded order", zap.Int64("id", res.ID), zap.Bool("temporary", res.IsTemporary))
	}
	return nil
}

func (s *Seeder) log(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}

func finalizedSample() dto.OrderRequest {
	return dto.OrderRequest{
		EventID:          1,
		GroomName:        "Minjun Kim",
		BrideName:        "Seoyeon Park",
		Contact:          "010-1234-5678",
		Address:          "Seoul",
		CollectionMethod: "pickup",
		TotalPrice:       decimal.NewFromInt(1200000),
		AdvancePayment:   decimal.NewFromInt(400000),
		BalancePayment:   decimal.NewFromInt(800000),
		Status:           string(entity.StatusOrderCompleted),
		Items: []dto.OrderItemRequest{
			{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(600000)},
		},
		Payments: []dto.PaymentRequest{
			{Payer: "groom", CashAmount: decimal.NewFromInt(400000), CashCurrency: "KRW", PaymentMethod: "advance"},
		},
		Alterations: []dto.AlterationRequest{
			{FormRepairID: 1},
		},
	}
}

func draftSample() dto.OrderRequest {
	return dto.OrderRequest{
		EventID:   2,
		GroomName: "Daniel Lee",
		BrideName: "Hana Choi",
		Status:    string(entity.StatusCounsel),
	}
}
