package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/models"
)

// OrderStore is the persistence contract of the order lifecycle. Status
// writes are compare-and-set: they report false when the order was not in
// the expected status any more.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to models.OrderStatus) (bool, error)
	UpdatePayment(ctx context.Context, id int64, method models.PaymentMethod, invoiceID string, from, to models.OrderStatus) (bool, error)
	AttachProof(ctx context.Context, id int64, proof models.PaymentProof, from, to models.OrderStatus) (bool, error)
	ListActive(ctx context.Context, limit int) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	CountForUser(ctx context.Context, userID int64) (int, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// PaymentGateway issues and checks crypto invoices. Amounts are in RUB.
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, amount decimal.Decimal, description string) (*models.Invoice, error)
	InvoiceStatus(ctx context.Context, invoiceID string) (models.InvoiceStatus, error)
}

type EventKind string

const (
	EventProofSubmitted EventKind = "proof_submitted"
	EventConfirmed      EventKind = "confirmed"
	EventRejected       EventKind = "rejected"
	EventDelivered      EventKind = "delivered"
	EventCryptoPaid     EventKind = "crypto_paid"
	EventCryptoExpired  EventKind = "crypto_expired"
)

// Event is emitted after a successful transition.
type Event struct {
	Kind  EventKind
	Order models.Order
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type PollResult string

const (
	PollPaid    PollResult = "paid"
	PollPending PollResult = "pending"
	PollExpired PollResult = "expired"
)

// PaymentSelection is the outcome of choosing how to pay. Invoice is set for
// crypto payments only.
type PaymentSelection struct {
	Order   *models.Order
	Invoice *models.Invoice
}

type OrderService struct {
	orders    OrderStore
	gateway   PaymentGateway
	notifier  Notifier
	operators map[int64]struct{}
	logger    *zap.Logger
}

// NewOrderService wires the lifecycle engine. gateway may be nil when the
// crypto rail is disabled.
func NewOrderService(orders OrderStore, gateway PaymentGateway, notifier Notifier, operatorIDs []int64, logger *zap.Logger) *OrderService {
	operators := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		operators[id] = struct{}{}
	}
	return &OrderService{
		orders:    orders,
		gateway:   gateway,
		notifier:  notifier,
		operators: operators,
		logger:    logger,
	}
}

func (s *OrderService) IsOperator(userID int64) bool {
	_, ok := s.operators[userID]
	return ok
}

func (s *OrderService) CryptoEnabled() bool {
	return s.gateway != nil
}

// Create stores a new pending order paid by card until told otherwise.
func (s *OrderService) Create(ctx context.Context, userID int64, kind models.OrderKind, recipient string, details models.OrderDetails, amount decimal.Decimal) (*models.Order, error) {
	if details == nil || details.Kind() != kind {
		return nil, invalid("details", fmt.Sprintf("details do not match %s order", kind))
	}
	if kind != models.KindExchange && recipient == "" {
		return nil, invalid("recipient", "укажите получателя")
	}
	if !amount.IsPos() {
		return nil, invalid("amount", "сумма заказа должна быть положительной")
	}

	order, err := s.orders.Create(ctx, &models.Order{
		UserID:        userID,
		Kind:          kind,
		Recipient:     recipient,
		Details:       details,
		Amount:        amount,
		PaymentMethod: models.PaymentCard,
		Status:        models.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("kind", string(kind)),
		zap.String("amount", amount.String()),
	)
	return order, nil
}

// Get returns the order or ErrOrderNotFound.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForUser hides orders of other users behind ErrOrderNotFound.
func (s *OrderService) GetForUser(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// SelectPaymentMethod moves a pending order to card or crypto payment.
func (s *OrderService) SelectPaymentMethod(ctx context.Context, orderID int64, method models.PaymentMethod) (*PaymentSelection, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, ErrInvalidTransition
	}

	switch method {
	case models.PaymentCard:
		if err := s.payment(ctx, order, models.PaymentCard, "", models.StatusWaitingPayment); err != nil {
			return nil, err
		}
		return &PaymentSelection{Order: order}, nil
	case models.PaymentCrypto:
		if order.Kind == models.KindExchange {
			return nil, ErrMethodNotAllowed
		}
		if s.gateway == nil {
			return nil, ErrGatewayUnavailable
		}
		invoice, err := s.gateway.CreateInvoice(ctx, order.Amount, invoiceDescription(order))
		if err != nil {
			return nil, fmt.Errorf("%w: create invoice: %w", ErrGateway, err)
		}
		if err := s.payment(ctx, order, models.PaymentCrypto, invoice.ID, models.StatusWaitingCrypto); err != nil {
			s.logger.Warn("invoice issued for order that left pending",
				zap.Int64("order_id", order.ID),
				zap.String("invoice_id", invoice.ID),
				zap.Error(err),
			)
			return nil, err
		}
		return &PaymentSelection{Order: order, Invoice: invoice}, nil
	default:
		return nil, ErrMethodNotAllowed
	}
}

func (s *OrderService) payment(ctx context.Context, order *models.Order, method models.PaymentMethod, invoiceID string, to models.OrderStatus) error {
	ok, err := s.orders.UpdatePayment(ctx, order.ID, method, invoiceID, order.Status, to)
	if err != nil {
		return fmt.Errorf("update payment of order %d: %w", order.ID, err)
	}
	if !ok {
		return ErrInvalidTransition
	}
	order.PaymentMethod = method
	order.InvoiceID = invoiceID
	order.Status = to
	return nil
}

func invoiceDescription(order *models.Order) string {
	return fmt.Sprintf("Заказ #%d | %s", order.ID, order.Kind)
}

// AttachPaymentProof records the transfer screenshot of a card order. A second
// proof sent while the order waits for confirmation replaces the first.
func (s *OrderService) AttachPaymentProof(ctx context.Context, orderID int64, proof models.PaymentProof) (*models.Order, error) {
	if proof.Empty() {
		return nil, invalid("proof", "пришлите фото или скриншот перевода")
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var to models.OrderStatus
	switch order.Status {
	case models.StatusWaitingPayment:
		to = models.StatusWaitingConfirmation
	case models.StatusWaitingConfirmation:
		to = models.StatusWaitingConfirmation
	default:
		return nil, ErrInvalidTransition
	}

	ok, err := s.orders.AttachProof(ctx, order.ID, proof, order.Status, to)
	if err != nil {
		return nil, fmt.Errorf("attach proof to order %d: %w", order.ID, err)
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	order.Proof = proof
	order.Status = to

	s.notify(ctx, EventProofSubmitted, order)
	return order, nil
}

func (s *OrderService) ConfirmByOperator(ctx context.Context, orderID, operatorID int64) (*models.Order, error) {
	return s.operatorTransition(ctx, orderID, operatorID, models.StatusConfirmed, EventConfirmed)
}

func (s *OrderService) RejectByOperator(ctx context.Context, orderID, operatorID int64) (*models.Order, error) {
	return s.operatorTransition(ctx, orderID, operatorID, models.StatusCancelled, EventRejected)
}

func (s *OrderService) MarkDelivered(ctx context.Context, orderID, operatorID int64) (*models.Order, error) {
	return s.operatorTransition(ctx, orderID, operatorID, models.StatusCompleted, EventDelivered)
}

func (s *OrderService) operatorTransition(ctx context.Context, orderID, operatorID int64, to models.OrderStatus, kind EventKind) (*models.Order, error) {
	if !s.IsOperator(operatorID) {
		return nil, ErrUnauthorized
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, order, to); err != nil {
		return nil, err
	}
	s.logger.Info("order status changed by operator",
		zap.Int64("order_id", order.ID),
		zap.Int64("operator_id", operatorID),
		zap.String("status", string(to)),
	)
	s.notify(ctx, kind, order)
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, to models.OrderStatus) error {
	if !models.CanTransition(order.Status, to) {
		return ErrInvalidTransition
	}
	ok, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, to)
	if err != nil {
		return fmt.Errorf("update status of order %d: %w", order.ID, err)
	}
	if !ok {
		return ErrInvalidTransition
	}
	order.Status = to
	return nil
}

// PollCryptoInvoice asks the gateway about the invoice of a waiting crypto
// order and applies the answer.
func (s *OrderService) PollCryptoInvoice(ctx context.Context, orderID int64) (PollResult, *models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	if order.Status != models.StatusWaitingCrypto || order.InvoiceID == "" {
		return "", order, ErrInvalidTransition
	}
	if s.gateway == nil {
		return "", order, ErrGatewayUnavailable
	}

	status, err := s.gateway.InvoiceStatus(ctx, order.InvoiceID)
	if err != nil {
		return "", order, fmt.Errorf("%w: invoice %s: %w", ErrGateway, order.InvoiceID, err)
	}

	switch status {
	case models.InvoicePaid:
		if err := s.transition(ctx, order, models.StatusConfirmed); err != nil {
			return "", order, err
		}
		s.notify(ctx, EventCryptoPaid, order)
		return PollPaid, order, nil
	case models.InvoiceExpired:
		if err := s.transition(ctx, order, models.StatusCancelled); err != nil {
			return "", order, err
		}
		s.notify(ctx, EventCryptoExpired, order)
		return PollExpired, order, nil
	default:
		return PollPending, order, nil
	}
}

func (s *OrderService) notify(ctx context.Context, kind EventKind, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, Event{Kind: kind, Order: *order}); err != nil {
		s.logger.Warn("notification failed",
			zap.String("event", string(kind)),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func (s *OrderService) ListActive(ctx context.Context, limit int) ([]models.Order, error) {
	orders, err := s.orders.ListActive(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) CountForUser(ctx context.Context, userID int64) (int, error) {
	n, err := s.orders.CountForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count orders of user %d: %w", userID, err)
	}
	return n, nil
}

func (s *OrderService) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return stats, nil
}

// IsUserError reports whether err carries a message meant for the user
// rather than an internal failure.
func IsUserError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrGatewayUnavailable) ||
		errors.Is(err, ErrGateway) ||
		errors.Is(err, ErrMethodNotAllowed) ||
		errors.Is(err, ErrNoPendingAction)
}
