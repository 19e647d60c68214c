package rate

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"

	"github.com/Additional-Code/atelier/internal/database"
	"github.com/Additional-Code/atelier/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/atelier/repository/rate")

// Module provides the rate snapshot repository to Fx.
var Module = fx.Provide(NewRepository)

// ErrNotFound is returned when no snapshot has been written yet.
var ErrNotFound = errors.New("rate snapshot not found")

// Repository reads and appends rate snapshots.
type Repository struct {
	writer *bun.DB
}

// NewRepository wires a repository on the writer connection. Freshness checks
// must see the snapshot written by the previous refresh, so reads skip the replica.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer}
}

// Latest returns the most recently taken snapshot.
func (r *Repository) Latest(ctx context.Context) (*entity.RateSnapshot, error) {
	ctx, span := repoTracer.Start(ctx, "RateRepository.Latest")
	defer span.End()

	snap := new(entity.RateSnapshot)
	err := r.writer.NewSelect().
		Model(snap).
		OrderExpr("rs.searched_at DESC, rs.id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return snap, nil
}

// Insert appends a snapshot.
func (r *Repository) Insert(ctx context.Context, snap *entity.RateSnapshot) error {
	ctx, span := repoTracer.Start(ctx, "RateRepository.Insert")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(snap).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}
