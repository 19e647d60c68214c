package order

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/atelier/internal/entity"
)

// Sort orders for List.
const (
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
)

// Filter narrows List results. Zero values leave a dimension unfiltered.
type Filter struct {
	EventID     int64
	Status      entity.Status
	Temporary   *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      string
	Sort        string
	Limit       int
	Offset      int
}

var searchColumns = []string{
	"o.order_number",
	"o.groom_name",
	"o.bride_name",
	"o.contact",
	"o.address",
	"o.notes",
	"o.alter_notes",
}

// likeEscaper escapes LIKE wildcards with '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// List returns order headers matching the filter and the total number of matches.
func (r *Repository) List(ctx context.Context, f Filter) ([]*entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(
		attribute.Int("page.limit", f.Limit),
		attribute.Int("page.offset", f.Offset),
	))
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders)

	if f.EventID > 0 {
		q = q.Where("o.event_id = ?", f.EventID)
	}
	if f.Status != "" {
		q = q.Where("o.status = ?", f.Status)
	}
	if f.Temporary != nil {
		q = q.Where("o.is_temporary = ?", *f.Temporary)
	}
	if f.CreatedFrom != nil {
		q = q.Where("o.created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("o.created_at < ?", *f.CreatedTo)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, col := range searchColumns {
				q = q.WhereOr("LOWER(?) LIKE LOWER(?) ESCAPE '!'", bun.Ident(col), pattern)
			}
			return q
		})
	}

	if f.Sort == SortCreatedAsc {
		q = q.OrderExpr("o.created_at ASC, o.id ASC")
	} else {
		q = q.OrderExpr("o.created_at DESC, o.id DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, 0, err
	}
	span.SetAttributes(attribute.Int("page.total", total))
	return orders, total, nil
}
