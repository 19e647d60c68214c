package migration

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/Additional-Code/atelier/internal/entity"
)

// DDL is rendered by bun for the connected dialect, so one set of migrations
// serves postgres, mysql and sqlite.
func migrations(db *bun.DB) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: createTables(db,
				(*entity.Order)(nil),
				(*entity.OrderItem)(nil),
				(*entity.Payment)(nil),
				(*entity.AlterationDetail)(nil),
			)},
			&goose.GoFunc{RunTx: dropTables(db,
				(*entity.AlterationDetail)(nil),
				(*entity.Payment)(nil),
				(*entity.OrderItem)(nil),
				(*entity.Order)(nil),
			)},
		),
		goose.NewGoMigration(2,
			&goose.GoFunc{RunTx: createIndexes(db,
				db.NewCreateIndex().Model((*entity.OrderItem)(nil)).Index("order_items_order_id_idx").Column("order_id"),
				db.NewCreateIndex().Model((*entity.Order)(nil)).Index("orders_event_id_idx").Column("event_id"),
				db.NewCreateIndex().Model((*entity.Order)(nil)).Index("orders_created_at_idx").Column("created_at"),
			)},
			&goose.GoFunc{RunTx: dropIndexes(db,
				db.NewDropIndex().Index("orders_created_at_idx").IfExists(),
				db.NewDropIndex().Index("orders_event_id_idx").IfExists(),
				db.NewDropIndex().Index("order_items_order_id_idx").IfExists(),
			)},
		),
		goose.NewGoMigration(3,
			&goose.GoFunc{RunTx: createTables(db, (*entity.OrderSequence)(nil))},
			&goose.GoFunc{RunTx: dropTables(db, (*entity.OrderSequence)(nil))},
		),
		goose.NewGoMigration(4,
			&goose.GoFunc{RunTx: createTables(db, (*entity.RateSnapshot)(nil))},
			&goose.GoFunc{RunTx: dropTables(db, (*entity.RateSnapshot)(nil))},
		),
	}
}

func createTables(db *bun.DB, models ...any) func(context.Context, *sql.Tx) error {
	queries := make([]schema.QueryAppender, 0, len(models))
	for _, model := range models {
		queries = append(queries, db.NewCreateTable().Model(model).IfNotExists())
	}
	return execAll(db, queries)
}

func dropTables(db *bun.DB, models ...any) func(context.Context, *sql.Tx) error {
	queries := make([]schema.QueryAppender, 0, len(models))
	for _, model := range models {
		queries = append(queries, db.NewDropTable().Model(model).IfExists())
	}
	return execAll(db, queries)
}

func createIndexes(db *bun.DB, indexes ...*bun.CreateIndexQuery) func(context.Context, *sql.Tx) error {
	queries := make([]schema.QueryAppender, 0, len(indexes))
	for _, idx := range indexes {
		queries = append(queries, idx)
	}
	return execAll(db, queries)
}

func dropIndexes(db *bun.DB, indexes ...*bun.DropIndexQuery) func(context.Context, *sql.Tx) error {
	queries := make([]schema.QueryAppender, 0, len(indexes))
	for _, idx := range indexes {
		queries = append(queries, idx)
	}
	return execAll(db, queries)
}

func execAll(db *bun.DB, queries []schema.QueryAppender) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, q := range queries {
			stmt, err := q.AppendQuery(db.Formatter(), nil)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, string(stmt)); err != nil {
				return err
			}
		}
		return nil
	}
}
