package core

// Order status transitions driven by administrative action:
//
//	pending → confirmed → delivered
//	pending | confirmed → cancelled
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusConfirmed: true, OrderStatusCancelled: true},
	OrderStatusConfirmed: {OrderStatusDelivered: true, OrderStatusCancelled: true},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Realized reports whether orders in this status count toward grower revenue.
func (s OrderStatus) Realized() bool {
	return s == OrderStatusConfirmed || s == OrderStatusDelivered
}
