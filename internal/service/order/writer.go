package order

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/ordernumber"
	repo "github.com/Additional-Code/atelier/internal/repository/order"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

// errNumberConflict marks a transaction that kept colliding on the order number.
var errNumberConflict = errors.New("order number conflict")

// Create persists a new order aggregate. A non-temporary order is numbered in
// the same transaction.
func (s *Service) Create(ctx context.Context, req dto.OrderRequest, temporary bool) (*dto.OrderResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.Int64("order.event_id", req.EventID),
		attribute.Bool("order.temporary", temporary),
	))
	defer span.End()

	status, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	var order *entity.Order
	err = s.inTx(ctx, func(ctx context.Context, tx bun.Tx, allocated *bool) error {
		now := s.clock.Now()
		order = headerFromRequest(req, status)
		order.IsTemporary = temporary
		order.CreatedAt = now
		order.UpdatedAt = now

		if !temporary {
			number, err := s.numbers.Next(ctx, tx, now)
			if err != nil {
				return err
			}
			*allocated = true
			order.OrderNumber = &number
		}

		if err := s.repo.Insert(ctx, tx, order); err != nil {
			return err
		}
		return s.writeChildren(ctx, tx, order.ID, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, s.writeError("create", err)
	}

	s.saved.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "create")))
	s.logger.Info("order created",
		zap.Int64("id", order.ID),
		zap.String("number", order.Number()),
		zap.Bool("temporary", order.IsTemporary),
	)

	events := []Event{newEvent(EventCreated, order, order.UpdatedAt)}
	if order.OrderNumber != nil {
		events = append(events, newEvent(EventFinalized, order, order.UpdatedAt))
	}
	s.publish(ctx, events...)

	result := dto.NewOrderResult(order)
	return &result, nil
}

// Update overwrites an order aggregate. Items are replaced wholesale; payments
// and alterations are matched by their natural key and updated or inserted,
// leaving stored rows the request omits untouched. An unnumbered order saved
// as non-temporary is finalized here.
func (s *Service) Update(ctx context.Context, id int64, req dto.OrderRequest, temporary bool) (*dto.OrderResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.Bool("order.temporary", temporary),
	))
	defer span.End()

	status, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	var (
		order     *entity.Order
		finalized bool
	)
	err = s.inTx(ctx, func(ctx context.Context, tx bun.Tx, allocated *bool) error {
		finalized = false

		current, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		order = headerFromRequest(req, status)
		order.ID = id
		order.OrderNumber = current.OrderNumber
		order.CreatedAt = current.CreatedAt
		order.UpdatedAt = now
		// a numbered order never returns to draft
		order.IsTemporary = temporary && current.OrderNumber == nil

		if err := s.repo.UpdateHeader(ctx, tx, order); err != nil {
			return err
		}

		if current.OrderNumber == nil && !temporary {
			number, err := s.numbers.Next(ctx, tx, now)
			if err != nil {
				return err
			}
			*allocated = true

			assigned, err := s.repo.AssignNumber(ctx, tx, id, number, now)
			if err != nil {
				return err
			}
			if assigned {
				order.OrderNumber = &number
				finalized = true
			} else {
				stored, err := s.repo.GetForUpdate(ctx, tx, id)
				if err != nil {
					return err
				}
				order.OrderNumber = stored.OrderNumber
			}
		}

		if err := s.repo.ReplaceItems(ctx, tx, id, itemsFromRequest(req.Items)); err != nil {
			return err
		}
		return s.upsertChildren(ctx, tx, id, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, s.writeError("update", err)
	}

	s.invalidate(ctx, id)
	s.saved.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "update")))

	events := []Event{newEvent(EventUpdated, order, order.UpdatedAt)}
	if finalized {
		s.logger.Info("order finalized", zap.Int64("id", id), zap.String("number", order.Number()))
		events = append(events, newEvent(EventFinalized, order, order.UpdatedAt))
	}
	s.publish(ctx, events...)

	result := dto.NewOrderResult(order)
	return &result, nil
}

// Delete removes an order together with all of its child rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	var current *entity.Order
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		current, err = s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.repo.DeleteAggregate(ctx, tx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return s.writeError("delete", err)
	}

	s.invalidate(ctx, id)
	s.saved.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "delete")))
	s.logger.Info("order deleted", zap.Int64("id", id), zap.String("number", current.Number()))
	s.publish(ctx, newEvent(EventDeleted, current, s.clock.Now()))
	return nil
}

// SetStatus replaces only the status of an order. Any known status may follow
// any other.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (*dto.OrderResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.SetStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", raw),
	))
	defer span.End()

	status, err := validateStatus(raw)
	if err != nil {
		return nil, err
	}

	var (
		order    *entity.Order
		previous entity.Status
	)
	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		previous = order.Status
		order.Status = status
		order.UpdatedAt = s.clock.Now()
		return s.repo.UpdateStatus(ctx, tx, id, status, order.UpdatedAt)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set status failed")
		return nil, s.writeError("set status", err)
	}

	s.invalidate(ctx, id)
	s.saved.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "status")))

	event := newEvent(EventStatusChanged, order, order.UpdatedAt)
	event.PreviousStatus = string(previous)
	s.publish(ctx, event)

	result := dto.NewOrderResult(order)
	return &result, nil
}

// inTx runs fn in a transaction and repeats the whole transaction when it fails
// on a unique constraint after fn claimed an order number, or when SQLite lock
// contention outlasted the busy timeout.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx, allocated *bool) error) error {
	for attempt := 1; ; attempt++ {
		allocated := false
		err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, tx, &allocated)
		})
		if err == nil {
			return nil
		}

		conflict := allocated && database.IsUniqueViolation(err)
		busy := database.IsBusy(err)
		if !conflict && !busy {
			return err
		}
		if attempt >= s.maxRetries {
			if conflict {
				return errors.Join(errNumberConflict, err)
			}
			return err
		}
		s.logger.Warn("order transaction contended; retrying",
			zap.Int("attempt", attempt),
			zap.Bool("number_conflict", conflict),
			zap.Error(err),
		)
	}
}

func (s *Service) writeChildren(ctx context.Context, tx bun.Tx, orderID int64, req dto.OrderRequest) error {
	if err := s.repo.ReplaceItems(ctx, tx, orderID, itemsFromRequest(req.Items)); err != nil {
		return err
	}
	return s.upsertChildren(ctx, tx, orderID, req)
}

func (s *Service) upsertChildren(ctx context.Context, tx bun.Tx, orderID int64, req dto.OrderRequest) error {
	for _, p := range req.Payments {
		if err := s.repo.UpsertPayment(ctx, tx, orderID, paymentFromRequest(p)); err != nil {
			return err
		}
	}
	for _, a := range req.Alterations {
		detail := &entity.AlterationDetail{
			FormRepairID:     a.FormRepairID,
			Figure:           a.Figure,
			AlterationFigure: a.AlterationFigure,
		}
		if err := s.repo.UpsertAlteration(ctx, tx, orderID, detail); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeError(op string, err error) error {
	if appErr, ok := errorbank.As(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("order not found")
	case errors.Is(err, ordernumber.ErrExhausted):
		return errorbank.AllocationExhausted("no order numbers left for today", errorbank.WithCause(err))
	case errors.Is(err, errNumberConflict):
		return errorbank.AllocationExhausted("could not allocate a unique order number", errorbank.WithCause(err))
	}
	s.logger.Error("order transaction failed", zap.String("operation", op), zap.Error(err))
	return errorbank.PersistenceFailed("failed to save order", errorbank.WithCause(err), errorbank.WithDetail("operation", op))
}

func headerFromRequest(req dto.OrderRequest, status entity.Status) *entity.Order {
	return &entity.Order{
		EventID:          req.EventID,
		AuthorID:         req.AuthorID,
		ModifierID:       req.ModifierID,
		AffiliationID:    req.AffiliationID,
		GroomName:        req.GroomName,
		BrideName:        req.BrideName,
		Contact:          req.Contact,
		Address:          req.Address,
		CollectionMethod: req.CollectionMethod,
		Notes:            req.Notes,
		AlterNotes:       req.AlterNotes,
		TotalPrice:       req.TotalPrice,
		AdvancePayment:   req.AdvancePayment,
		BalancePayment:   req.BalancePayment,
		Status:           status,
	}
}

func itemsFromRequest(reqs []dto.OrderItemRequest) []*entity.OrderItem {
	items := make([]*entity.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, &entity.OrderItem{
			ProductID:   r.ProductID,
			AttributeID: r.AttributeID,
			Quantity:    r.Quantity,
			Price:       r.Price,
		})
	}
	return items
}

func paymentFromRequest(r dto.PaymentRequest) *entity.Payment {
	p := &entity.Payment{
		Payer:             r.Payer,
		CashAmount:        r.CashAmount,
		CashCurrency:      r.CashCurrency,
		CashConversion:    r.CashConversion,
		CardAmount:        r.CardAmount,
		CardCurrency:      r.CardCurrency,
		CardConversion:    r.CardConversion,
		TradeInAmount:     r.TradeInAmount,
		TradeInCurrency:   r.TradeInCurrency,
		TradeInConversion: r.TradeInConversion,
		PaymentMethod:     r.PaymentMethod,
		Notes:             r.Notes,
	}
	if r.PaymentDate != nil {
		p.PaymentDate = r.PaymentDate.UTC()
	}
	return p
}
