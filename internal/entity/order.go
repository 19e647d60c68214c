package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order is the aggregate root for a customer order placed against an event.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID               int64           `bun:",pk,autoincrement" json:"id"`
	EventID          int64           `bun:"event_id,notnull" json:"event_id"`
	AuthorID         *int64          `bun:"author_id" json:"author_id,omitempty"`
	ModifierID       *int64          `bun:"modifier_id" json:"modifier_id,omitempty"`
	AffiliationID    *int64          `bun:"affiliation_id" json:"affiliation_id,omitempty"`
	OrderNumber      *string         `bun:"order_number,unique" json:"order_number,omitempty"`
	GroomName        string          `bun:"groom_name,notnull" json:"groom_name"`
	BrideName        string          `bun:"bride_name,notnull" json:"bride_name"`
	Contact          string          `bun:"contact,notnull" json:"contact"`
	Address          string          `bun:"address,notnull" json:"address"`
	CollectionMethod string          `bun:"collection_method,notnull" json:"collection_method"`
	Notes            string          `bun:"notes,notnull" json:"notes"`
	AlterNotes       string          `bun:"alter_notes,notnull" json:"alter_notes"`
	TotalPrice       decimal.Decimal `bun:"total_price,type:decimal(12,2),notnull" json:"total_price"`
	AdvancePayment   decimal.Decimal `bun:"advance_payment,type:decimal(12,2),notnull" json:"advance_payment"`
	BalancePayment   decimal.Decimal `bun:"balance_payment,type:decimal(12,2),notnull" json:"balance_payment"`
	Status           Status          `bun:"status,notnull" json:"status"`
	IsTemporary      bool            `bun:"is_temporary,notnull" json:"is_temporary"`
	CreatedAt        time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time       `bun:"updated_at,notnull" json:"updated_at"`

	Items       []*OrderItem        `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	Payments    []*Payment          `bun:"rel:has-many,join:id=order_id" json:"payments,omitempty"`
	Alterations []*AlterationDetail `bun:"rel:has-many,join:id=order_id" json:"alterations,omitempty"`
}

// Number returns the assigned order number or an empty string for drafts.
func (o *Order) Number() string {
	if o == nil || o.OrderNumber == nil {
		return ""
	}
	return *o.OrderNumber
}

// OrderItem is a product line owned by an order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID          int64           `bun:",pk,autoincrement" json:"id"`
	OrderID     int64           `bun:"order_id,notnull" json:"order_id"`
	ProductID   int64           `bun:"product_id,notnull" json:"product_id"`
	AttributeID *int64          `bun:"attribute_id" json:"attribute_id,omitempty"`
	Quantity    int             `bun:"quantity,notnull" json:"quantity"`
	Price       decimal.Decimal `bun:"price,type:decimal(12,2),notnull" json:"price"`
}

// Payment records one installment of an order, keyed by payment method within the order.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:p"`

	ID                int64           `bun:",pk,autoincrement" json:"id"`
	OrderID           int64           `bun:"order_id,notnull,unique:payments_order_method" json:"order_id"`
	Payer             string          `bun:"payer,notnull" json:"payer"`
	PaymentDate       time.Time       `bun:"payment_date,nullzero" json:"payment_date"`
	CashAmount        decimal.Decimal `bun:"cash_amount,type:decimal(12,2),notnull" json:"cash_amount"`
	CashCurrency      string          `bun:"cash_currency,notnull" json:"cash_currency"`
	CashConversion    decimal.Decimal `bun:"cash_conversion,type:decimal(14,2),notnull" json:"cash_conversion"`
	CardAmount        decimal.Decimal `bun:"card_amount,type:decimal(12,2),notnull" json:"card_amount"`
	CardCurrency      string          `bun:"card_currency,notnull" json:"card_currency"`
	CardConversion    decimal.Decimal `bun:"card_conversion,type:decimal(14,2),notnull" json:"card_conversion"`
	TradeInAmount     decimal.Decimal `bun:"trade_in_amount,type:decimal(12,2),notnull" json:"trade_in_amount"`
	TradeInCurrency   string          `bun:"trade_in_currency,notnull" json:"trade_in_currency"`
	TradeInConversion decimal.Decimal `bun:"trade_in_conversion,type:decimal(14,2),notnull" json:"trade_in_conversion"`
	PaymentMethod     string          `bun:"payment_method,notnull,unique:payments_order_method" json:"payment_method"`
	Notes             string          `bun:"notes,notnull" json:"notes"`
}

// AlterationDetail stores one measurement against a form repair definition.
type AlterationDetail struct {
	bun.BaseModel `bun:"table:alteration_details,alias:ad"`

	ID               int64    `bun:",pk,autoincrement" json:"id"`
	OrderID          int64    `bun:"order_id,notnull,unique:alterations_order_repair" json:"order_id"`
	FormRepairID     int64    `bun:"form_repair_id,notnull,unique:alterations_order_repair" json:"form_repair_id"`
	Figure           *float64 `bun:"figure" json:"figure,omitempty"`
	AlterationFigure *float64 `bun:"alteration_figure" json:"alteration_figure,omitempty"`
}

// OrderSequence is the per-day counter row behind order numbers.
type OrderSequence struct {
	bun.BaseModel `bun:"table:order_sequences,alias:os"`

	DayKey    string `bun:"day_key,pk,type:varchar(6)"`
	LastValue int    `bun:"last_value,notnull"`
}
