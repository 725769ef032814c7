package domain

// OrderStatus is the whole-order status. Payment is settled synchronously,
// so orders are born PAID.
type OrderStatus string

const (
	OrderPaid      OrderStatus = "PAID"
	OrderCompleted OrderStatus = "COMPLETED"
)

// ItemStatus is the per-seller fulfillment status of one order line.
type ItemStatus string

const (
	ItemPending        ItemStatus = "pending"
	ItemAccepted       ItemStatus = "accepted"
	ItemPacking        ItemStatus = "packing"
	ItemOutForDelivery ItemStatus = "out_for_delivery"
	ItemDelivered      ItemStatus = "delivered"
	ItemCancelled      ItemStatus = "cancelled"
	// ItemCompleted is a legacy terminal value. It is honored when present but never settable.
	ItemCompleted ItemStatus = "completed"
)

// fulfillment chain rank; cancelled sits outside it.
var itemRank = map[ItemStatus]int{
	ItemPending:        0,
	ItemAccepted:       1,
	ItemPacking:        2,
	ItemOutForDelivery: 3,
	ItemDelivered:      4,
}

var settable = map[ItemStatus]bool{
	ItemPending:        true,
	ItemAccepted:       true,
	ItemPacking:        true,
	ItemOutForDelivery: true,
	ItemDelivered:      true,
	ItemCancelled:      true,
}

func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemDelivered, ItemCancelled, ItemCompleted:
		return true
	}
	return false
}

// ParseItemStatus accepts only the statuses a seller may set.
func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if !settable[st] {
		return "", &InvalidStatusError{Status: s, Reason: "status is not one of pending, accepted, packing, out_for_delivery, delivered, cancelled"}
	}
	return st, nil
}

// CanTransition allows forward moves along the fulfillment chain (skipping is fine),
// cancellation from any non-terminal state, and same-status no-ops.
func CanTransition(from, to ItemStatus) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == ItemCancelled {
		return true
	}
	fr, ok1 := itemRank[from]
	tr, ok2 := itemRank[to]
	return ok1 && ok2 && tr > fr
}
