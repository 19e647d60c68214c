package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// RateSnapshot captures one refresh cycle of the gold and exchange feeds.
// Rows are append-only; the latest SearchedAt is the current rate.
type RateSnapshot struct {
	bun.BaseModel `bun:"table:rate_snapshots,alias:rs"`

	ID int64 `bun:",pk,autoincrement" json:"id"`

	GoldBaseDate *time.Time          `bun:"gold_base_date" json:"gold_base_date,omitempty"`
	Gold24K      decimal.NullDecimal `bun:"gold_24k,type:decimal(18,4)" json:"gold_24k"`
	Gold18K      decimal.NullDecimal `bun:"gold_18k,type:decimal(18,4)" json:"gold_18k"`
	Gold14K      decimal.NullDecimal `bun:"gold_14k,type:decimal(18,4)" json:"gold_14k"`
	Gold10K      decimal.NullDecimal `bun:"gold_10k,type:decimal(18,4)" json:"gold_10k"`

	ExchangeBaseDate *time.Time          `bun:"exchange_base_date" json:"exchange_base_date,omitempty"`
	USD              decimal.NullDecimal `bun:"usd,type:decimal(18,4)" json:"usd"`
	JPY              decimal.NullDecimal `bun:"jpy,type:decimal(18,4)" json:"jpy"`
	KRW              decimal.NullDecimal `bun:"krw,type:decimal(18,4)" json:"krw"`

	SearchedAt time.Time `bun:"searched_at,notnull" json:"searched_at"`
}

// HasGold reports whether the snapshot carries gold prices.
func (r *RateSnapshot) HasGold() bool {
	return r != nil && r.GoldBaseDate != nil
}

// HasExchange reports whether the snapshot carries exchange rates.
func (r *RateSnapshot) HasExchange() bool {
	return r != nil && r.ExchangeBaseDate != nil
}
