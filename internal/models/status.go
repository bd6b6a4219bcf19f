package models

type OrderStatus string

const (
	StatusPending             OrderStatus = "pending"
	StatusWaitingPayment      OrderStatus = "waiting_payment"
	StatusWaitingConfirmation OrderStatus = "waiting_confirmation"
	StatusWaitingCrypto       OrderStatus = "waiting_crypto"
	StatusConfirmed           OrderStatus = "confirmed"
	StatusCompleted           OrderStatus = "completed"
	StatusCancelled           OrderStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusWaitingPayment,
	StatusWaitingConfirmation,
	StatusWaitingCrypto,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
}

// TerminalStatuses are never left once reached.
var TerminalStatuses = []OrderStatus{StatusCompleted, StatusCancelled}

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:             {StatusWaitingPayment, StatusWaitingCrypto, StatusConfirmed, StatusCancelled},
	StatusWaitingPayment:      {StatusWaitingConfirmation, StatusConfirmed, StatusCancelled},
	StatusWaitingConfirmation: {StatusConfirmed, StatusCancelled},
	StatusWaitingCrypto:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusCompleted, StatusCancelled},
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Emoji is the marker used in operator order lists.
func (s OrderStatus) Emoji() string {
	switch s {
	case StatusPending:
		return "⏳"
	case StatusWaitingPayment:
		return "💳"
	case StatusWaitingConfirmation:
		return "📸"
	case StatusWaitingCrypto:
		return "💎"
	case StatusConfirmed:
		return "✅"
	case StatusCompleted:
		return "📦"
	case StatusCancelled:
		return "❌"
	}
	return "❓"
}
