package entity

// Status is the caller-controlled progress marker of an order. Any known value may
// replace any other.
type Status string

const (
	StatusOrderCompleted     Status = "Order Completed"
	StatusPackagingCompleted Status = "Packaging Completed"
	StatusRepairReceived     Status = "Repair Received"
	StatusRepairCompleted    Status = "Repair Completed"
	StatusInDelivery         Status = "In delivery"
	StatusDeliveryCompleted  Status = "Delivery completed"
	StatusReceiptCompleted   Status = "Receipt completed"
	StatusAccommodation      Status = "Accommodation"
	StatusCounsel            Status = "Counsel"
)

// Statuses lists the known statuses in their usual real-world progression.
var Statuses = []Status{
	StatusOrderCompleted,
	StatusPackagingCompleted,
	StatusRepairReceived,
	StatusRepairCompleted,
	StatusInDelivery,
	StatusDeliveryCompleted,
	StatusReceiptCompleted,
	StatusAccommodation,
	StatusCounsel,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus accepts either the stored value ("Order Completed") or its
// identifier form ("Order_Completed").
func ParseStatus(raw string) (Status, bool) {
	candidate := Status(raw)
	if candidate.Valid() {
		return candidate, true
	}
	for _, known := range Statuses {
		if identifier(known) == raw {
			return known, true
		}
	}
	return "", false
}

func identifier(s Status) string {
	out := []byte(s)
	for i, c := range out {
		if c == ' ' {
			out[i] = '_'
		}
	}
	return string(out)
}
