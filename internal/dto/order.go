package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/atelier/internal/entity"
)

// OrderRequest is the full replacement payload for creating or updating an order.
type OrderRequest struct {
	EventID          int64               `json:"event_id"`
	AuthorID         *int64              `json:"author_id,omitempty"`
	ModifierID       *int64              `json:"modifier_id,omitempty"`
	AffiliationID    *int64              `json:"affiliation_id,omitempty"`
	GroomName        string              `json:"groom_name"`
	BrideName        string              `json:"bride_name"`
	Contact          string              `json:"contact"`
	Address          string              `json:"address"`
	CollectionMethod string              `json:"collection_method"`
	Notes            string              `json:"notes"`
	AlterNotes       string              `json:"alter_notes"`
	TotalPrice       decimal.Decimal     `json:"total_price"`
	AdvancePayment   decimal.Decimal     `json:"advance_payment"`
	BalancePayment   decimal.Decimal     `json:"balance_payment"`
	Status           string              `json:"status"`
	Items            []OrderItemRequest  `json:"items"`
	Payments         []PaymentRequest    `json:"payments"`
	Alterations      []AlterationRequest `json:"alterations"`
}

// OrderItemRequest is one product line of an order.
type OrderItemRequest struct {
	ProductID   int64           `json:"product_id"`
	AttributeID *int64          `json:"attribute_id,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// PaymentRequest is one installment, identified within the order by PaymentMethod.
type PaymentRequest struct {
	Payer             string          `json:"payer"`
	PaymentDate       *time.Time      `json:"payment_date,omitempty"`
	CashAmount        decimal.Decimal `json:"cash_amount"`
	CashCurrency      string          `json:"cash_currency"`
	CashConversion    decimal.Decimal `json:"cash_conversion"`
	CardAmount        decimal.Decimal `json:"card_amount"`
	CardCurrency      string          `json:"card_currency"`
	CardConversion    decimal.Decimal `json:"card_conversion"`
	TradeInAmount     decimal.Decimal `json:"trade_in_amount"`
	TradeInCurrency   string          `json:"trade_in_currency"`
	TradeInConversion decimal.Decimal `json:"trade_in_conversion"`
	PaymentMethod     string          `json:"payment_method"`
	Notes             string          `json:"notes"`
}

// AlterationRequest is one measurement against a form repair definition.
type AlterationRequest struct {
	FormRepairID     int64    `json:"form_repair_id"`
	Figure           *float64 `json:"figure,omitempty"`
	AlterationFigure *float64 `json:"alteration_figure,omitempty"`
}

// StatusRequest carries a status-only change.
type StatusRequest struct {
	Status string `json:"status"`
}

// OrderListQuery binds the list filters from the query string.
type OrderListQuery struct {
	EventID   int64  `query:"event_id"`
	Status    string `query:"status"`
	Temporary string `query:"is_temporary"`
	From      string `query:"from"`
	To        string `query:"to"`
	Search    string `query:"search"`
	Sort      string `query:"sort"`
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
}

// OrderResult reports what a mutation assigned.
type OrderResult struct {
	ID          int64   `json:"id"`
	OrderNumber *string `json:"order_number"`
	IsTemporary bool    `json:"is_temporary"`
	Status      string  `json:"status"`
}

// OrderResponse represents an order aggregate as exposed via transport layers.
type OrderResponse struct {
	ID               int64                `json:"id"`
	EventID          int64                `json:"event_id"`
	AuthorID         *int64               `json:"author_id,omitempty"`
	ModifierID       *int64               `json:"modifier_id,omitempty"`
	AffiliationID    *int64               `json:"affiliation_id,omitempty"`
	OrderNumber      *string              `json:"order_number"`
	GroomName        string               `json:"groom_name"`
	BrideName        string               `json:"bride_name"`
	Contact          string               `json:"contact"`
	Address          string               `json:"address"`
	CollectionMethod string               `json:"collection_method"`
	Notes            string               `json:"notes"`
	AlterNotes       string               `json:"alter_notes"`
	TotalPrice       decimal.Decimal      `json:"total_price"`
	AdvancePayment   decimal.Decimal      `json:"advance_payment"`
	BalancePayment   decimal.Decimal      `json:"balance_payment"`
	Status           string               `json:"status"`
	IsTemporary      bool                 `json:"is_temporary"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Items            []OrderItemResponse  `json:"items,omitempty"`
	Payments         []PaymentResponse    `json:"payments,omitempty"`
	Alterations      []AlterationResponse `json:"alterations,omitempty"`
}

// OrderItemResponse mirrors a stored order item.
type OrderItemResponse struct {
	ID int64 `json:"id"`
	OrderItemRequest
}

// PaymentResponse mirrors a stored payment.
type PaymentResponse struct {
	ID int64 `json:"id"`
	PaymentRequest
}

// AlterationResponse mirrors a stored alteration detail.
type AlterationResponse struct {
	ID int64 `json:"id"`
	AlterationRequest
}

// NewOrderResponse maps an order aggregate onto its transport shape.
func NewOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		EventID:          o.EventID,
		AuthorID:         o.AuthorID,
		ModifierID:       o.ModifierID,
		AffiliationID:    o.AffiliationID,
		OrderNumber:      o.OrderNumber,
		GroomName:        o.GroomName,
		BrideName:        o.BrideName,
		Contact:          o.Contact,
		Address:          o.Address,
		CollectionMethod: o.CollectionMethod,
		Notes:            o.Notes,
		AlterNotes:       o.AlterNotes,
		TotalPrice:       o.TotalPrice,
		AdvancePayment:   o.AdvancePayment,
		BalancePayment:   o.BalancePayment,
		Status:           string(o.Status),
		IsTemporary:      o.IsTemporary,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID: it.ID,
			OrderItemRequest: OrderItemRequest{
				ProductID:   it.ProductID,
				AttributeID: it.AttributeID,
				Quantity:    it.Quantity,
				Price:       it.Price,
			},
		})
	}
	for _, p := range o.Payments {
		pr := PaymentResponse{ID: p.ID, PaymentRequest: PaymentRequest{
			Payer:             p.Payer,
			CashAmount:        p.CashAmount,
			CashCurrency:      p.CashCurrency,
			CashConversion:    p.CashConversion,
			CardAmount:        p.CardAmount,
			CardCurrency:      p.CardCurrency,
			CardConversion:    p.CardConversion,
			TradeInAmount:     p.TradeInAmount,
			TradeInCurrency:   p.TradeInCurrency,
			TradeInConversion: p.TradeInConversion,
			PaymentMethod:     p.PaymentMethod,
			Notes:             p.Notes,
		}}
		if !p.PaymentDate.IsZero() {
			date := p.PaymentDate
			pr.PaymentDate = &date
		}
		resp.Payments = append(resp.Payments, pr)
	}
	for _, a := range o.Alterations {
		resp.Alterations = append(resp.Alterations, AlterationResponse{
			ID: a.ID,
			AlterationRequest: AlterationRequest{
				FormRepairID:     a.FormRepairID,
				Figure:           a.Figure,
				AlterationFigure: a.AlterationFigure,
			},
		})
	}
	return resp
}

// NewOrderResult summarises a mutated order.
func NewOrderResult(o *entity.Order) OrderResult {
	return OrderResult{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		IsTemporary: o.IsTemporary,
		Status:      string(o.Status),
	}
}

// OrderPage is one page of List results.
type OrderPage struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}
