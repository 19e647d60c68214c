package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/atelier/internal/entity"
)

const baseDateLayout = "20060102"

// GoldRates is the gold view of a rate snapshot.
type GoldRates struct {
	BaseDate string              `json:"bas_dt"`
	Gold24K  decimal.NullDecimal `json:"gold_24k"`
	Gold18K  decimal.NullDecimal `json:"gold_18k"`
	Gold14K  decimal.NullDecimal `json:"gold_14k"`
	Gold10K  decimal.NullDecimal `json:"gold_10k"`
}

// ExchangeRate is one currency line of the exchange view.
type ExchangeRate struct {
	CurUnit  string              `json:"cur_unit"`
	CurName  string              `json:"cur_nm"`
	DealBasR decimal.NullDecimal `json:"deal_bas_r"`
}

// ExchangeRates is the exchange view of a rate snapshot.
type ExchangeRates struct {
	SearchDate string         `json:"search_date"`
	Items      []ExchangeRate `json:"items"`
}

// RatesResponse combines both views with the time the snapshot was taken.
type RatesResponse struct {
	Gold       *GoldRates     `json:"gold"`
	Exchange   *ExchangeRates `json:"exchange"`
	SearchedAt time.Time      `json:"searched_at"`
}

// NewGoldRates maps the gold columns of a snapshot.
func NewGoldRates(s *entity.RateSnapshot) *GoldRates {
	if !s.HasGold() {
		return nil
	}
	return &GoldRates{
		BaseDate: s.GoldBaseDate.Format(baseDateLayout),
		Gold24K:  s.Gold24K,
		Gold18K:  s.Gold18K,
		Gold14K:  s.Gold14K,
		Gold10K:  s.Gold10K,
	}
}

// NewExchangeRates maps the exchange columns of a snapshot.
func NewExchangeRates(s *entity.RateSnapshot) *ExchangeRates {
	if !s.HasExchange() {
		return nil
	}
	return &ExchangeRates{
		SearchDate: s.ExchangeBaseDate.Format(baseDateLayout),
		Items: []ExchangeRate{
			{CurUnit: "USD", CurName: "US Dollar", DealBasR: s.USD},
			{CurUnit: "JPY(100)", CurName: "Japanese Yen (100)", DealBasR: s.JPY},
			{CurUnit: "KRW", CurName: "South Korean Won", DealBasR: s.KRW},
		},
	}
}

// NewRatesResponse maps a full snapshot.
func NewRatesResponse(s *entity.RateSnapshot) *RatesResponse {
	return &RatesResponse{
		Gold:       NewGoldRates(s),
		Exchange:   NewExchangeRates(s),
		SearchedAt: s.SearchedAt,
	}
}
