package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/atelier/repository/order")

// Module provides the order repository to Fx.
var Module = fx.Provide(NewRepository)

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for order aggregates.
//
// Write primitives take a bun.IDB so the service can compose them inside one
// transaction; reads that stand alone go to the reader connection.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// RunInTx executes fn inside a writer transaction, rolling back when fn fails.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.writer.RunInTx(ctx, nil, fn)
}

// Insert persists a new order header.
func (r *Repository) Insert(ctx context.Context, db bun.IDB, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Insert", trace.WithAttributes(attribute.Int64("order.event_id", order.EventID)))
	defer span.End()

	if _, err := db.NewInsert().Model(order).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return nil
}

// GetForUpdate loads an order header and, where the dialect supports it, locks
// the row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, db bun.IDB, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetForUpdate", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	q := db.NewSelect().Model(order).Where("o.id = ?", id)
	if db.Dialect().Name() != dialect.SQLite {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// AssignNumber sets the order number on an unnumbered order and clears the
// temporary flag. It reports false when the order already held a number.
func (r *Repository) AssignNumber(ctx context.Context, db bun.IDB, id int64, number string, now time.Time) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.AssignNumber", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.number", number),
	))
	defer span.End()

	res, err := db.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("order_number = ?", number).
		Set("is_temporary = ?", false).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("order_number IS NULL").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assign failed")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateHeader overwrites every header column except the identity, number and
// creation timestamp.
func (r *Repository) UpdateHeader(ctx context.Context, db bun.IDB, order *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateHeader", trace.WithAttributes(attribute.Int64("order.id", order.ID)))
	defer span.End()

	_, err := db.NewUpdate().
		Model(order).
		ExcludeColumn("order_number", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// UpdateStatus touches only the status and update timestamp.
func (r *Repository) UpdateStatus(ctx context.Context, db bun.IDB, id int64, status entity.Status, now time.Time) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	_, err := db.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// ReplaceItems deletes every item of the order and inserts the given set.
func (r *Repository) ReplaceItems(ctx context.Context, db bun.IDB, orderID int64, items []*entity.OrderItem) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ReplaceItems", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int("order.items", len(items)),
	))
	defer span.End()

	if _, err := db.NewDelete().
		Model((*entity.OrderItem)(nil)).
		Where("order_id = ?", orderID).
		Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete items failed")
		return fmt.Errorf("delete items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		item.ID = 0
		item.OrderID = orderID
	}
	if _, err := db.NewInsert().Model(&items).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert items failed")
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// UpsertPayment overwrites the payment stored under the same payment method or
// inserts a new row when the method is not yet present on the order.
func (r *Repository) UpsertPayment(ctx context.Context, db bun.IDB, orderID int64, payment *entity.Payment) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpsertPayment", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("payment.method", payment.PaymentMethod),
	))
	defer span.End()

	payment.OrderID = orderID

	var existingID int64
	err := db.NewSelect().
		Model((*entity.Payment)(nil)).
		Column("id").
		Where("order_id = ?", orderID).
		Where("payment_method = ?", payment.PaymentMethod).
		Scan(ctx, &existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		payment.ID = 0
		_, err = db.NewInsert().Model(payment).Exec(ctx)
	case err == nil:
		payment.ID = existingID
		_, err = db.NewUpdate().Model(payment).WherePK().Exec(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert payment failed")
		return fmt.Errorf("upsert payment %q: %w", payment.PaymentMethod, err)
	}
	return nil
}

// UpsertAlteration overwrites the detail stored for the same form repair or
// inserts a new one.
func (r *Repository) UpsertAlteration(ctx context.Context, db bun.IDB, orderID int64, detail *entity.AlterationDetail) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpsertAlteration", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Int64("alteration.form_repair_id", detail.FormRepairID),
	))
	defer span.End()

	detail.OrderID = orderID

	var existingID int64
	err := db.NewSelect().
		Model((*entity.AlterationDetail)(nil)).
		Column("id").
		Where("order_id = ?", orderID).
		Where("form_repair_id = ?", detail.FormRepairID).
		Scan(ctx, &existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		detail.ID = 0
		_, err = db.NewInsert().Model(detail).Exec(ctx)
	case err == nil:
		detail.ID = existingID
		_, err = db.NewUpdate().Model(detail).WherePK().Exec(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert alteration failed")
		return fmt.Errorf("upsert alteration %d: %w", detail.FormRepairID, err)
	}
	return nil
}

// DeleteAggregate removes the children and then the header of an order.
func (r *Repository) DeleteAggregate(ctx context.Context, db bun.IDB, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DeleteAggregate", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	children := []interface{}{
		(*entity.OrderItem)(nil),
		(*entity.Payment)(nil),
		(*entity.AlterationDetail)(nil),
	}
	for _, model := range children {
		if _, err := db.NewDelete().Model(model).Where("order_id = ?", id).Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete children failed")
			return err
		}
	}

	res, err := db.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// GetAggregate fetches an order with its items, payments and alterations using
// the read replica when available.
func (r *Repository) GetAggregate(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetAggregate", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().
		Model(order).
		Relation("Items", orderByID).
		Relation("Payments", orderByID).
		Relation("Alterations", orderByID).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// UpdatedAt reads the current update stamp of an order from the writer.
func (r *Repository) UpdatedAt(ctx context.Context, id int64) (time.Time, error) {
	var updatedAt time.Time
	err := r.writer.NewSelect().
		Model((*entity.Order)(nil)).
		Column("o.updated_at").
		Where("o.id = ?", id).
		Scan(ctx, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return updatedAt, err
}

func orderByID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("id ASC")
}
