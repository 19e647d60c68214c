package order_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/atelier/internal/cache"
	"github.com/Additional-Code/atelier/internal/clock"
	"github.com/Additional-Code/atelier/internal/config"
	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/database/dbtest"
	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/messaging"
	"github.com/Additional-Code/atelier/internal/ordernumber"
	repo "github.com/Additional-Code/atelier/internal/repository/order"
	service "github.com/Additional-Code/atelier/internal/service/order"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *recordingPublisher) Publish(_ context.Context, _ []byte, value []byte, headers map[string]string) error {
	var event service.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	if headers[messaging.HeaderEventType] != event.Type {
		return nil
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *recordingPublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *recordingPublisher) Topic() string { return "atelier.orders" }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingPublisher) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type ServiceSuite struct {
	suite.Suite

	ctx       context.Context
	conns     *database.Connections
	clock     *clock.Fake
	cache     *cache.MemoryStore
	publisher *recordingPublisher
	svc       *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.conns = dbtest.New(s.T())
	s.clock = clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	s.cache = cache.NewMemoryStore(time.Minute)
	s.publisher = &recordingPublisher{}

	s.svc = s.newService(s.conns, s.cache)
}

// newService builds a service over conns and store sharing the suite's clock
// and publisher.
func (s *ServiceSuite) newService(conns *database.Connections, store cache.Store) *service.Service {
	alloc, err := ordernumber.NewAllocator(time.UTC, zap.NewNop())
	s.Require().NoError(err)

	var cfg config.Config
	cfg.Messaging.Enabled = true
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Orders.MaxRetries = 3

	svc, err := service.NewService(service.Params{
		Repository: repo.NewRepository(conns),
		Allocator:  alloc,
		Clock:      s.clock,
		Cache:      store,
		Config:     cfg,
		Logger:     zap.NewNop(),
		Publisher:  s.publisher,
	})
	s.Require().NoError(err)
	return svc
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func float(v float64) *float64 {
	return &v
}

func fullRequest() dto.OrderRequest {
	author := int64(11)
	paidAt := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	return dto.OrderRequest{
		EventID:          1,
		AuthorID:         &author,
		GroomName:        "Minho",
		BrideName:        "Yuna",
		Contact:          "010-1234-5678",
		Address:          "Seoul",
		CollectionMethod: "pickup",
		Notes:            "handle with care",
		AlterNotes:       "shorten sleeves",
		TotalPrice:       money("120.00"),
		AdvancePayment:   money("20.00"),
		BalancePayment:   money("100.00"),
		Status:           string(entity.StatusOrderCompleted),
		Items: []dto.OrderItemRequest{
			{ProductID: 7, Quantity: 2, Price: money("10.00")},
			{ProductID: 8, Quantity: 1, Price: money("100.00")},
		},
		Payments: []dto.PaymentRequest{
			{Payer: "groom", PaymentDate: &paidAt, PaymentMethod: "advance", CashAmount: money("20.00"), CashCurrency: "KRW"},
			{Payer: "bride", PaymentMethod: "balance", CardAmount: money("100.00"), CardCurrency: "USD", CardConversion: money("132000.00")},
		},
		Alterations: []dto.AlterationRequest{
			{FormRepairID: 3, Figure: float(52.5), AlterationFigure: float(50)},
		},
	}
}

func (s *ServiceSuite) TestCreateExampleScenario() {
	req := dto.OrderRequest{
		EventID:  1,
		Status:   string(entity.StatusOrderCompleted),
		Items:    []dto.OrderItemRequest{{ProductID: 7, Quantity: 2, Price: money("10.00")}},
		Payments: []dto.PaymentRequest{{PaymentMethod: "advance", CashAmount: money("20.00"), CashCurrency: "KRW"}},
	}

	res, err := s.svc.Create(s.ctx, req, false)
	s.Require().NoError(err)
	s.Require().NotNil(res.OrderNumber)
	s.Equal("250301-001", *res.OrderNumber)
	s.False(res.IsTemporary)

	got, err := s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Len(got.Items, 1)
	s.Len(got.Payments, 1)

	s.Equal([]string{service.EventCreated, service.EventFinalized}, s.publisher.types())
}

func (s *ServiceSuite) TestCreateRoundTrip() {
	req := fullRequest()

	res, err := s.svc.Create(s.ctx, req, false)
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)

	s.Equal(req.EventID, got.EventID)
	s.Equal(req.AuthorID, got.AuthorID)
	s.Nil(got.ModifierID)
	s.Equal(req.GroomName, got.GroomName)
	s.Equal(req.BrideName, got.BrideName)
	s.Equal(req.Contact, got.Contact)
	s.Equal(req.Address, got.Address)
	s.Equal(req.CollectionMethod, got.CollectionMethod)
	s.Equal(req.Notes, got.Notes)
	s.Equal(req.AlterNotes, got.AlterNotes)
	s.True(req.TotalPrice.Equal(got.TotalPrice))
	s.True(req.AdvancePayment.Equal(got.AdvancePayment))
	s.True(req.BalancePayment.Equal(got.BalancePayment))
	s.Equal(req.Status, got.Status)

	s.Require().Len(got.Items, 2)
	for i, item := range req.Items {
		s.Equal(item.ProductID, got.Items[i].ProductID)
		s.Equal(item.Quantity, got.Items[i].Quantity)
		s.True(item.Price.Equal(got.Items[i].Price))
	}

	s.Require().Len(got.Payments, 2)
	for i, p := range req.Payments {
		s.Equal(p.Payer, got.Payments[i].Payer)
		s.Equal(p.PaymentMethod, got.Payments[i].PaymentMethod)
		s.True(p.CashAmount.Equal(got.Payments[i].CashAmount))
		s.Equal(p.CashCurrency, got.Payments[i].CashCurrency)
		s.True(p.CardAmount.Equal(got.Payments[i].CardAmount))
		s.Equal(p.CardCurrency, got.Payments[i].CardCurrency)
		s.True(p.CardConversion.Equal(got.Payments[i].CardConversion))
	}
	s.Require().NotNil(got.Payments[0].PaymentDate)
	s.True(req.Payments[0].PaymentDate.Equal(*got.Payments[0].PaymentDate))
	s.Nil(got.Payments[1].PaymentDate)

	s.Require().Len(got.Alterations, 1)
	s.Equal(int64(3), got.Alterations[0].FormRepairID)
	s.Equal(52.5, *got.Alterations[0].Figure)
	s.Equal(50.0, *got.Alterations[0].AlterationFigure)
}

func (s *ServiceSuite) TestSameDayNumbersIncreaseAndResetNextDay() {
	var numbers []string
	for i := 0; i < 3; i++ {
		res, err := s.svc.Create(s.ctx, fullRequest(), false)
		s.Require().NoError(err)
		numbers = append(numbers, *res.OrderNumber)
		s.clock.Advance(time.Minute)
	}
	s.Equal([]string{"250301-001", "250301-002", "250301-003"}, numbers)

	s.clock.Set(time.Date(2025, 3, 2, 0, 0, 1, 0, time.UTC))
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)
	s.Equal("250302-001", *res.OrderNumber)
}

func (s *ServiceSuite) TestTemporaryOrderIsFinalizedLazily() {
	draft, err := s.svc.Create(s.ctx, fullRequest(), true)
	s.Require().NoError(err)
	s.Nil(draft.OrderNumber)
	s.True(draft.IsTemporary)

	still, err := s.svc.Update(s.ctx, draft.ID, fullRequest(), true)
	s.Require().NoError(err)
	s.Nil(still.OrderNumber)
	s.True(still.IsTemporary)

	s.clock.Advance(24 * time.Hour)
	final, err := s.svc.Update(s.ctx, draft.ID, fullRequest(), false)
	s.Require().NoError(err)
	s.Require().NotNil(final.OrderNumber)
	s.Equal("250302-001", *final.OrderNumber)
	s.False(final.IsTemporary)

	// a later draft save keeps the number
	again, err := s.svc.Update(s.ctx, draft.ID, fullRequest(), true)
	s.Require().NoError(err)
	s.Require().NotNil(again.OrderNumber)
	s.Equal("250302-001", *again.OrderNumber)
	s.False(again.IsTemporary)

	got, err := s.svc.Get(s.ctx, draft.ID)
	s.Require().NoError(err)
	s.Equal("250302-001", *got.OrderNumber)
	s.False(got.IsTemporary)

	s.Contains(s.publisher.types(), service.EventFinalized)
}

func (s *ServiceSuite) TestUpdateReplacesItemsButKeepsOrphanPayments() {
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)

	update := fullRequest()
	update.GroomName = "Jisoo"
	update.Items = []dto.OrderItemRequest{{ProductID: 9, Quantity: 5, Price: money("1.00")}}
	update.Payments = []dto.PaymentRequest{{Payer: "parents", PaymentMethod: "advance", CashAmount: money("30.00"), CashCurrency: "JPY"}}
	update.Alterations = []dto.AlterationRequest{{FormRepairID: 4, Figure: float(90)}}

	s.clock.Advance(time.Hour)
	_, err = s.svc.Update(s.ctx, res.ID, update, false)
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Equal("Jisoo", got.GroomName)
	s.Equal("250301-001", *got.OrderNumber)
	s.True(got.UpdatedAt.After(got.CreatedAt))

	s.Require().Len(got.Items, 1)
	s.Equal(int64(9), got.Items[0].ProductID)

	// advance was overwritten in place, balance was omitted and survives
	s.Require().Len(got.Payments, 2)
	byMethod := map[string]dto.PaymentResponse{}
	for _, p := range got.Payments {
		byMethod[p.PaymentMethod] = p
	}
	s.Equal("parents", byMethod["advance"].Payer)
	s.Equal("JPY", byMethod["advance"].CashCurrency)
	s.True(money("30").Equal(byMethod["advance"].CashAmount))
	s.Equal("bride", byMethod["balance"].Payer)

	// alteration 3 survives next to the new alteration 4
	s.Require().Len(got.Alterations, 2)
	s.Equal(int64(3), got.Alterations[0].FormRepairID)
	s.Equal(int64(4), got.Alterations[1].FormRepairID)
}

func (s *ServiceSuite) TestUpdateOverwritesMatchedAlteration() {
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)

	update := fullRequest()
	update.Alterations = []dto.AlterationRequest{{FormRepairID: 3, Figure: float(60), AlterationFigure: float(58)}}
	_, err = s.svc.Update(s.ctx, res.ID, update, false)
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Alterations, 1)
	s.Equal(60.0, *got.Alterations[0].Figure)
	s.Equal(58.0, *got.Alterations[0].AlterationFigure)
}

func (s *ServiceSuite) TestGetServesCacheUntilMutation() {
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	_, err = s.cache.Get(s.ctx, service.CacheKey(res.ID))
	s.Require().NoError(err)

	_, err = s.svc.SetStatus(s.ctx, res.ID, "In_delivery")
	s.Require().NoError(err)
	_, err = s.cache.Get(s.ctx, service.CacheKey(res.ID))
	s.ErrorIs(err, cache.ErrCacheMiss)

	got, err := s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Equal(string(entity.StatusInDelivery), got.Status)
}

// interleavingStore runs beforeSet once, ahead of the first cache write.
type interleavingStore struct {
	cache.Store
	beforeSet func()
}

func (i *interleavingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f := i.beforeSet; f != nil {
		i.beforeSet = nil
		f()
	}
	return i.Store.Set(ctx, key, value, ttl)
}

func (s *ServiceSuite) TestGetDoesNotCacheOrderChangedWhileLoading() {
	store := &interleavingStore{Store: cache.NewMemoryStore(time.Minute)}
	svc := s.newService(s.conns, store)

	res, err := svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)

	store.beforeSet = func() {
		s.clock.Advance(time.Minute)
		_, err := svc.SetStatus(s.ctx, res.ID, "In_delivery")
		s.Require().NoError(err)
	}
	stale, err := svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Equal(string(entity.StatusOrderCompleted), stale.Status)

	_, err = store.Get(s.ctx, service.CacheKey(res.ID))
	s.ErrorIs(err, cache.ErrCacheMiss)

	got, err := svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Equal(string(entity.StatusInDelivery), got.Status)
	_, err = store.Get(s.ctx, service.CacheKey(res.ID))
	s.NoError(err)
}

func (s *ServiceSuite) TestSetStatusAllowsAnyTransition() {
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)

	for _, status := range []entity.Status{entity.StatusCounsel, entity.StatusOrderCompleted, entity.StatusDeliveryCompleted} {
		out, err := s.svc.SetStatus(s.ctx, res.ID, string(status))
		s.Require().NoError(err)
		s.Equal(string(status), out.Status)
	}

	_, err = s.svc.SetStatus(s.ctx, res.ID, "Shipped")
	s.True(errorbank.IsKind(err, errorbank.KindValidationFailed))
}

func (s *ServiceSuite) TestValidationFailures() {
	cases := map[string]func(*dto.OrderRequest){
		"unknown status":       func(r *dto.OrderRequest) { r.Status = "Lost" },
		"missing event":        func(r *dto.OrderRequest) { r.EventID = 0 },
		"negative total":       func(r *dto.OrderRequest) { r.TotalPrice = money("-1") },
		"zero quantity":        func(r *dto.OrderRequest) { r.Items[0].Quantity = 0 },
		"duplicate method":     func(r *dto.OrderRequest) { r.Payments[1].PaymentMethod = "advance" },
		"unsupported currency": func(r *dto.OrderRequest) { r.Payments[0].CashCurrency = "EUR" },
		"unsupported trade-in currency": func(r *dto.OrderRequest) {
			r.Payments[0].TradeInAmount = money("5.00")
			r.Payments[0].TradeInCurrency = "GBP"
		},
		"negative trade-in amount":  func(r *dto.OrderRequest) { r.Payments[0].TradeInAmount = money("-5") },
		"negative cash conversion":  func(r *dto.OrderRequest) { r.Payments[0].CashConversion = money("-1") },
		"negative card conversion":  func(r *dto.OrderRequest) { r.Payments[1].CardConversion = money("-132000") },
		"negative trade conversion": func(r *dto.OrderRequest) { r.Payments[0].TradeInConversion = money("-0.01") },
		"duplicate repair": func(r *dto.OrderRequest) {
			r.Alterations = append(r.Alterations, dto.AlterationRequest{FormRepairID: 3})
		},
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			req := fullRequest()
			mutate(&req)
			_, err := s.svc.Create(s.ctx, req, false)
			s.True(errorbank.IsKind(err, errorbank.KindValidationFailed), "got %v", err)
		})
	}

	count, err := s.conns.Writer.NewSelect().Model((*entity.Order)(nil)).Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceSuite) TestTradeInPaymentAccepted() {
	req := fullRequest()
	req.Payments[0].TradeInAmount = money("3000")
	req.Payments[0].TradeInCurrency = "JPY"
	req.Payments[0].TradeInConversion = money("27000.00")

	res, err := s.svc.Create(s.ctx, req, false)
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Payments, 2)
	s.Equal("JPY", got.Payments[0].TradeInCurrency)
	s.True(money("27000").Equal(got.Payments[0].TradeInConversion))
}

func (s *ServiceSuite) TestMissingOrderIsNotFound() {
	_, err := s.svc.Update(s.ctx, 404, fullRequest(), false)
	s.True(errorbank.IsKind(err, errorbank.KindNotFound))

	_, err = s.svc.SetStatus(s.ctx, 404, string(entity.StatusCounsel))
	s.True(errorbank.IsKind(err, errorbank.KindNotFound))

	s.True(errorbank.IsKind(s.svc.Delete(s.ctx, 404), errorbank.KindNotFound))

	_, err = s.svc.Get(s.ctx, 404)
	s.True(errorbank.IsKind(err, errorbank.KindNotFound))

	// the failed update must not have consumed a number
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)
	s.Equal("250301-001", *res.OrderNumber)
}

func (s *ServiceSuite) TestDeleteRemovesAggregate() {
	res, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)
	_, err = s.svc.Get(s.ctx, res.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, res.ID))

	_, err = s.svc.Get(s.ctx, res.ID)
	s.True(errorbank.IsKind(err, errorbank.KindNotFound))

	for _, model := range []interface{}{(*entity.OrderItem)(nil), (*entity.Payment)(nil), (*entity.AlterationDetail)(nil)} {
		count, err := s.conns.Writer.NewSelect().Model(model).Count(s.ctx)
		s.Require().NoError(err)
		s.Zero(count)
	}
	s.Contains(s.publisher.types(), service.EventDeleted)
}

func (s *ServiceSuite) TestExhaustedDayFailsWithoutPartialWrites() {
	_, err := s.conns.Writer.NewInsert().
		Model(&entity.OrderSequence{DayKey: "250301", LastValue: ordernumber.MaxSequence}).
		Exec(s.ctx)
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, fullRequest(), false)
	s.True(errorbank.IsKind(err, errorbank.KindAllocationExhausted), "got %v", err)

	count, err := s.conns.Writer.NewSelect().Model((*entity.Order)(nil)).Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	// drafts need no number and still work
	draft, err := s.svc.Create(s.ctx, fullRequest(), true)
	s.Require().NoError(err)
	s.Nil(draft.OrderNumber)
}

func (s *ServiceSuite) countRows(model interface{}) int {
	count, err := s.conns.Writer.NewSelect().Model(model).Count(s.ctx)
	s.Require().NoError(err)
	return count
}

func (s *ServiceSuite) TestCreateRollsBackWhenAlterationWriteFails() {
	_, err := s.conns.Writer.ExecContext(s.ctx, "DROP TABLE alteration_details")
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, fullRequest(), false)
	s.True(errorbank.IsKind(err, errorbank.KindPersistenceFailed), "got %v", err)

	s.Zero(s.countRows((*entity.Order)(nil)))
	s.Zero(s.countRows((*entity.OrderItem)(nil)))
	s.Zero(s.countRows((*entity.Payment)(nil)))
	s.Zero(s.countRows((*entity.OrderSequence)(nil)))
	s.Empty(s.publisher.types())
}

func (s *ServiceSuite) TestUpdateRollsBackWhenPaymentWriteFails() {
	draft, err := s.svc.Create(s.ctx, fullRequest(), true)
	s.Require().NoError(err)
	s.publisher.reset()

	_, err = s.conns.Writer.ExecContext(s.ctx, "DROP TABLE payments")
	s.Require().NoError(err)

	req := fullRequest()
	req.GroomName = "Jisoo"
	req.Items = req.Items[:1]
	req.Alterations[0].AlterationFigure = float(48)
	_, err = s.svc.Update(s.ctx, draft.ID, req, false)
	s.True(errorbank.IsKind(err, errorbank.KindPersistenceFailed), "got %v", err)

	var stored entity.Order
	s.Require().NoError(s.conns.Writer.NewSelect().Model(&stored).Where("id = ?", draft.ID).Scan(s.ctx))
	s.Equal("Minho", stored.GroomName)
	s.Nil(stored.OrderNumber)
	s.True(stored.IsTemporary)

	s.Equal(2, s.countRows((*entity.OrderItem)(nil)))
	var alteration entity.AlterationDetail
	s.Require().NoError(s.conns.Writer.NewSelect().Model(&alteration).Where("order_id = ?", draft.ID).Scan(s.ctx))
	s.Require().NotNil(alteration.AlterationFigure)
	s.Equal(50.0, *alteration.AlterationFigure)
	// the number drawn inside the failed transaction is not consumed
	s.Zero(s.countRows((*entity.OrderSequence)(nil)))
	s.Empty(s.publisher.types())
}

func (s *ServiceSuite) TestConcurrentCreatesGetDistinctNumbers() {
	const n = 12
	svc := s.newService(dbtest.NewFile(s.T(), 8), s.cache)
	var (
		mu      sync.Mutex
		numbers = map[string]struct{}{}
		g       errgroup.Group
	)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			res, err := svc.Create(s.ctx, fullRequest(), false)
			if err != nil {
				return err
			}
			mu.Lock()
			numbers[*res.OrderNumber] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	s.Len(numbers, n)
}

func (s *ServiceSuite) TestListFiltersAndPages() {
	_, err := s.svc.Create(s.ctx, fullRequest(), false)
	s.Require().NoError(err)
	s.clock.Advance(time.Hour)
	_, err = s.svc.Create(s.ctx, fullRequest(), true)
	s.Require().NoError(err)
	s.clock.Advance(time.Hour)
	other := fullRequest()
	other.EventID = 2
	other.GroomName = "Daeho"
	_, err = s.svc.Create(s.ctx, other, false)
	s.Require().NoError(err)

	page, err := s.svc.List(s.ctx, dto.OrderListQuery{EventID: 1})
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Equal(20, page.Limit)

	page, err = s.svc.List(s.ctx, dto.OrderListQuery{Temporary: "true"})
	s.Require().NoError(err)
	s.Equal(1, page.Total)
	s.Nil(page.Orders[0].OrderNumber)

	page, err = s.svc.List(s.ctx, dto.OrderListQuery{Search: "Daeho"})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)
	s.Equal("250301-002", *page.Orders[0].OrderNumber)

	page, err = s.svc.List(s.ctx, dto.OrderListQuery{From: "2025-03-01", To: "2025-03-01", Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Len(page.Orders, 2)
	s.Equal("Daeho", page.Orders[0].GroomName)

	_, err = s.svc.List(s.ctx, dto.OrderListQuery{Status: "Lost"})
	s.True(errorbank.IsKind(err, errorbank.KindValidationFailed))
}
