package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/atelier/internal/database/dbtest"
	"github.com/Additional-Code/atelier/internal/entity"
	repo "github.com/Additional-Code/atelier/internal/repository/order"
)

type RepositorySuite struct {
	suite.Suite

	ctx  context.Context
	db   *bun.DB
	repo *repo.Repository
	now  time.Time
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	conns := dbtest.New(s.T())
	s.ctx = context.Background()
	s.db = conns.Writer
	s.repo = repo.NewRepository(conns)
	s.now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) insertOrder(eventID int64, groom string, temporary bool) *entity.Order {
	order := &entity.Order{
		EventID:     eventID,
		GroomName:   groom,
		BrideName:   "Yuna",
		Status:      entity.StatusOrderCompleted,
		IsTemporary: temporary,
		TotalPrice:  decimal.RequireFromString("100.00"),
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
	s.Require().NoError(s.repo.Insert(s.ctx, s.db, order))
	s.Require().NotZero(order.ID)
	return order
}

func (s *RepositorySuite) TestGetAggregateLoadsChildrenInInsertOrder() {
	order := s.insertOrder(1, "Minho", false)

	items := []*entity.OrderItem{
		{ProductID: 7, Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{ProductID: 8, Quantity: 1, Price: decimal.RequireFromString("5.50")},
	}
	s.Require().NoError(s.repo.ReplaceItems(s.ctx, s.db, order.ID, items))
	s.Require().NoError(s.repo.UpsertPayment(s.ctx, s.db, order.ID, &entity.Payment{PaymentMethod: "advance", CashCurrency: "KRW"}))
	s.Require().NoError(s.repo.UpsertAlteration(s.ctx, s.db, order.ID, &entity.AlterationDetail{FormRepairID: 3}))

	got, err := s.repo.GetAggregate(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 2)
	s.Equal(int64(7), got.Items[0].ProductID)
	s.Equal(int64(8), got.Items[1].ProductID)
	s.True(got.Items[1].Price.Equal(decimal.RequireFromString("5.5")))
	s.Len(got.Payments, 1)
	s.Len(got.Alterations, 1)
}

func (s *RepositorySuite) TestReplaceItemsDropsPreviousSet() {
	order := s.insertOrder(1, "Minho", false)

	s.Require().NoError(s.repo.ReplaceItems(s.ctx, s.db, order.ID, []*entity.OrderItem{
		{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}, {ProductID: 3, Quantity: 1},
	}))
	s.Require().NoError(s.repo.ReplaceItems(s.ctx, s.db, order.ID, []*entity.OrderItem{
		{ProductID: 9, Quantity: 4},
	}))

	got, err := s.repo.GetAggregate(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 1)
	s.Equal(int64(9), got.Items[0].ProductID)
	s.Equal(4, got.Items[0].Quantity)
}

func (s *RepositorySuite) TestUpsertPaymentOverwritesByMethod() {
	order := s.insertOrder(1, "Minho", false)

	s.Require().NoError(s.repo.UpsertPayment(s.ctx, s.db, order.ID, &entity.Payment{
		PaymentMethod: "advance", Payer: "groom", CashAmount: decimal.RequireFromString("20.00"),
	}))
	s.Require().NoError(s.repo.UpsertPayment(s.ctx, s.db, order.ID, &entity.Payment{
		PaymentMethod: "advance", Payer: "bride", CashAmount: decimal.RequireFromString("25.00"),
	}))

	got, err := s.repo.GetAggregate(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Payments, 1)
	s.Equal("bride", got.Payments[0].Payer)
	s.True(got.Payments[0].CashAmount.Equal(decimal.RequireFromString("25")))
}

func (s *RepositorySuite) TestAssignNumberOnlyOnce() {
	order := s.insertOrder(1, "Minho", true)

	ok, err := s.repo.AssignNumber(s.ctx, s.db, order.ID, "250301-001", s.now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.AssignNumber(s.ctx, s.db, order.ID, "250301-002", s.now)
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.repo.GetForUpdate(s.ctx, s.db, order.ID)
	s.Require().NoError(err)
	s.Equal("250301-001", got.Number())
	s.False(got.IsTemporary)
}

func (s *RepositorySuite) TestUpdateHeaderKeepsNumberAndCreatedAt() {
	order := s.insertOrder(1, "Minho", true)
	_, err := s.repo.AssignNumber(s.ctx, s.db, order.ID, "250301-001", s.now)
	s.Require().NoError(err)

	later := s.now.Add(2 * time.Hour)
	s.Require().NoError(s.repo.UpdateHeader(s.ctx, s.db, &entity.Order{
		ID:        order.ID,
		EventID:   2,
		GroomName: "Jisoo",
		Status:    entity.StatusCounsel,
		CreatedAt: later,
		UpdatedAt: later,
	}))

	got, err := s.repo.GetForUpdate(s.ctx, s.db, order.ID)
	s.Require().NoError(err)
	s.Equal("250301-001", got.Number())
	s.Equal("Jisoo", got.GroomName)
	s.Equal(int64(2), got.EventID)
	s.True(got.CreatedAt.Equal(s.now))
	s.True(got.UpdatedAt.Equal(later))
}

func (s *RepositorySuite) TestDeleteAggregate() {
	order := s.insertOrder(1, "Minho", false)
	s.Require().NoError(s.repo.ReplaceItems(s.ctx, s.db, order.ID, []*entity.OrderItem{{ProductID: 1, Quantity: 1}}))
	s.Require().NoError(s.repo.UpsertPayment(s.ctx, s.db, order.ID, &entity.Payment{PaymentMethod: "balance"}))

	s.Require().NoError(s.repo.DeleteAggregate(s.ctx, s.db, order.ID))

	_, err := s.repo.GetAggregate(s.ctx, order.ID)
	s.ErrorIs(err, repo.ErrNotFound)

	count, err := s.db.NewSelect().Model((*entity.OrderItem)(nil)).Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.ErrorIs(s.repo.DeleteAggregate(s.ctx, s.db, order.ID), repo.ErrNotFound)
}

func (s *RepositorySuite) TestListFiltersAndCounts() {
	s.insertOrder(1, "Minho", false)
	s.insertOrder(1, "Jisoo", true)
	s.insertOrder(2, "Minjun", false)

	orders, total, err := s.repo.List(s.ctx, repo.Filter{EventID: 1})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(orders, 2)

	draft := true
	orders, total, err = s.repo.List(s.ctx, repo.Filter{Temporary: &draft})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("Jisoo", orders[0].GroomName)

	orders, total, err = s.repo.List(s.ctx, repo.Filter{Search: "Min", Sort: repo.SortCreatedAsc, Limit: 1})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(orders, 1)
	s.Equal("Minho", orders[0].GroomName)
}

func (s *RepositorySuite) TestListSearchIgnoresCaseAndEscapesWildcards() {
	minho := s.insertOrder(1, "Minho", false)
	discount := s.insertOrder(1, "Jisoo", false)
	s.insertOrder(1, "Daeho", false)

	_, err := s.db.NewUpdate().Model((*entity.Order)(nil)).
		Set("alter_notes = ?", "Let out WAIST").
		Where("id = ?", minho.ID).
		Exec(s.ctx)
	s.Require().NoError(err)
	_, err = s.db.NewUpdate().Model((*entity.Order)(nil)).
		Set("notes = ?", "10% off_sale").
		Where("id = ?", discount.ID).
		Exec(s.ctx)
	s.Require().NoError(err)

	orders, total, err := s.repo.List(s.ctx, repo.Filter{Search: "MINHO"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(minho.ID, orders[0].ID)

	orders, total, err = s.repo.List(s.ctx, repo.Filter{Search: "waist"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(minho.ID, orders[0].ID)

	orders, total, err = s.repo.List(s.ctx, repo.Filter{Search: "10%"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(discount.ID, orders[0].ID)

	// a bare wildcard matches literally, not every row
	_, total, err = s.repo.List(s.ctx, repo.Filter{Search: "%"})
	s.Require().NoError(err)
	s.Equal(1, total)
	_, total, err = s.repo.List(s.ctx, repo.Filter{Search: "_"})
	s.Require().NoError(err)
	s.Equal(1, total)
}
