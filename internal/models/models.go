package models

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderKind string

const (
	KindStars    OrderKind = "stars"
	KindPremium  OrderKind = "premium"
	KindExchange OrderKind = "exchange"
)

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentCrypto PaymentMethod = "crypto"
)

type PremiumPeriod string

const (
	Premium3Months PremiumPeriod = "3m"
	Premium6Months PremiumPeriod = "6m"
	Premium1Year   PremiumPeriod = "1y"
)

// PremiumPeriods lists the sellable periods in menu order.
var PremiumPeriods = []PremiumPeriod{Premium3Months, Premium6Months, Premium1Year}

func (p PremiumPeriod) Valid() bool {
	switch p {
	case Premium3Months, Premium6Months, Premium1Year:
		return true
	}
	return false
}

func (p PremiumPeriod) Title() string {
	switch p {
	case Premium3Months:
		return "3 месяца"
	case Premium6Months:
		return "6 месяцев"
	case Premium1Year:
		return "1 год"
	}
	return string(p)
}

type User struct {
	ID        int64
	Username  string
	FullName  string
	CreatedAt time.Time
}

type Order struct {
	ID            int64
	UserID        int64
	Kind          OrderKind
	Recipient     string
	Details       OrderDetails
	Proof         PaymentProof
	Amount        decimal.Decimal
	PaymentMethod PaymentMethod
	Status        OrderStatus
	InvoiceID     string
	CreatedAt     time.Time
}

// PaymentProof references the transfer screenshot a user sent for a card order.
type PaymentProof struct {
	FileID     string `json:"payment_photo,omitempty"`
	ArchiveURL string `json:"payment_photo_archive,omitempty"`
}

func (p PaymentProof) Empty() bool {
	return p.FileID == ""
}

type Invoice struct {
	ID     string
	PayURL string
	Amount decimal.Decimal
	Asset  string
}

type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceExpired InvoiceStatus = "expired"
)

// Stats aggregates counters for the operator dashboards.
type Stats struct {
	Users          int                 `json:"users"`
	UsersToday     int                 `json:"users_today"`
	ActiveUsers24h int                 `json:"active_users_24h"`
	Orders         int                 `json:"orders"`
	OrdersToday    int                 `json:"orders_today"`
	ActiveOrders   int                 `json:"active_orders"`
	Revenue        decimal.Decimal     `json:"revenue"`
	RevenueToday   decimal.Decimal     `json:"revenue_today"`
	OrdersByStatus map[OrderStatus]int `json:"orders_by_status"`
	GeneratedAt    time.Time           `json:"generated_at"`
}
