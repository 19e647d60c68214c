package order

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/atelier/internal/dto"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/pkg/errorbank"
)

var currencies = map[string]struct{}{
	"KRW": {},
	"JPY": {},
	"USD": {},
}

func validateRequest(req dto.OrderRequest) (entity.Status, error) {
	status, err := validateStatus(req.Status)
	if err != nil {
		return "", err
	}
	if req.EventID <= 0 {
		return "", invalid("event_id", "event_id is required")
	}

	money := []struct {
		field string
		value decimal.Decimal
	}{
		{"total_price", req.TotalPrice},
		{"advance_payment", req.AdvancePayment},
		{"balance_payment", req.BalancePayment},
	}
	for _, m := range money {
		if m.value.IsNegative() {
			return "", invalid(m.field, m.field+" must not be negative")
		}
	}

	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return "", invalid("items.product_id", "product_id is required")
		}
		if item.Quantity <= 0 {
			return "", invalid("items.quantity", "quantity must be positive")
		}
		if item.Price.IsNegative() {
			return "", invalid("items.price", "price must not be negative")
		}
	}

	methods := make(map[string]struct{}, len(req.Payments))
	for _, p := range req.Payments {
		if p.PaymentMethod == "" {
			return "", invalid("payments.payment_method", "payment_method is required")
		}
		if _, dup := methods[p.PaymentMethod]; dup {
			return "", invalid("payments.payment_method", "payment_method "+p.PaymentMethod+" appears twice")
		}
		methods[p.PaymentMethod] = struct{}{}

		sources := []struct {
			name       string
			amount     decimal.Decimal
			currency   string
			conversion decimal.Decimal
		}{
			{"cash", p.CashAmount, p.CashCurrency, p.CashConversion},
			{"card", p.CardAmount, p.CardCurrency, p.CardConversion},
			{"trade_in", p.TradeInAmount, p.TradeInCurrency, p.TradeInConversion},
		}
		for _, src := range sources {
			if src.currency != "" {
				if _, ok := currencies[src.currency]; !ok {
					return "", invalid("payments."+src.name+"_currency", "unsupported currency "+src.currency)
				}
			}
			if src.amount.IsNegative() {
				return "", invalid("payments."+src.name+"_amount", src.name+"_amount must not be negative")
			}
			if src.conversion.IsNegative() {
				return "", invalid("payments."+src.name+"_conversion", src.name+"_conversion must not be negative")
			}
		}
	}

	repairs := make(map[int64]struct{}, len(req.Alterations))
	for _, a := range req.Alterations {
		if a.FormRepairID <= 0 {
			return "", invalid("alterations.form_repair_id", "form_repair_id is required")
		}
		if _, dup := repairs[a.FormRepairID]; dup {
			return "", invalid("alterations.form_repair_id", "form_repair_id appears twice")
		}
		repairs[a.FormRepairID] = struct{}{}
	}

	return status, nil
}

func validateStatus(raw string) (entity.Status, error) {
	status, ok := entity.ParseStatus(raw)
	if !ok {
		return "", errorbank.ValidationFailed("unknown order status",
			errorbank.WithDetail("field", "status"),
			errorbank.WithDetail("status", raw),
		)
	}
	return status, nil
}

func invalid(field, message string) error {
	return errorbank.ValidationFailed(message, errorbank.WithDetail("field", field))
}
