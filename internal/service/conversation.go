package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/calc"
	"github.com/digkill/DigiStoreBot/internal/models"
	"github.com/digkill/DigiStoreBot/internal/state"
)

// Expectation tells what the next text message of a user means.
type Expectation string

const (
	ExpectStarsRecipient   Expectation = "stars_recipient"
	ExpectStarsQuantity    Expectation = "stars_quantity"
	ExpectPremiumRecipient Expectation = "premium_recipient"
	ExpectExchangeAmount   Expectation = "exchange_amount"
	ExpectCalculation      Expectation = "calculation"
	ExpectPaymentProof     Expectation = "payment_proof"
)

// Conversation is the single pending step of a user together with what was
// collected so far.
type Conversation struct {
	Expect    Expectation          `json:"expect"`
	Recipient string               `json:"recipient,omitempty"`
	Period    models.PremiumPeriod `json:"period,omitempty"`
	Price     decimal.Decimal      `json:"price"`
	OrderID   int64                `json:"order_id,omitempty"`
}

// InputOutcome reports what a consumed message did. Exactly one of Next,
// Order or Calculated is set.
type InputOutcome struct {
	Next       Expectation
	Recipient  string
	Order      *models.Order
	Calculated bool
	Expression string
	Result     decimal.Decimal
}

var recipientPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// NormalizeRecipient strips one leading "@" and checks the handle charset.
func NormalizeRecipient(text string) (string, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(text), "@")
	if !recipientPattern.MatchString(handle) {
		return "", invalid("recipient", "юзернейм может содержать только латинские буквы, цифры и _")
	}
	return handle, nil
}

type ConversationService struct {
	states  state.Store[Conversation]
	orders  *OrderService
	catalog *Catalog
	logger  *zap.Logger
}

func NewConversationService(states state.Store[Conversation], orders *OrderService, catalog *Catalog, logger *zap.Logger) *ConversationService {
	return &ConversationService{states: states, orders: orders, catalog: catalog, logger: logger}
}

// SetExpectation replaces whatever the user was doing before.
func (s *ConversationService) SetExpectation(ctx context.Context, userID int64, conv Conversation) error {
	if err := s.states.Put(ctx, userID, conv); err != nil {
		return fmt.Errorf("set expectation %s for %d: %w", conv.Expect, userID, err)
	}
	return nil
}

// Current returns the pending step of the user, if any.
func (s *ConversationService) Current(ctx context.Context, userID int64) (Conversation, bool, error) {
	conv, ok, err := s.states.Get(ctx, userID)
	if err != nil {
		return Conversation{}, false, fmt.Errorf("load conversation of %d: %w", userID, err)
	}
	return conv, ok, nil
}

func (s *ConversationService) Cancel(ctx context.Context, userID int64) error {
	if err := s.states.Delete(ctx, userID); err != nil {
		return fmt.Errorf("cancel conversation of %d: %w", userID, err)
	}
	return nil
}

// ConsumeInput interprets a text message according to the pending step.
// Validation errors leave the step in place so the user can try again.
func (s *ConversationService) ConsumeInput(ctx context.Context, userID int64, text string) (*InputOutcome, error) {
	conv, ok, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoExpectation
	}

	switch conv.Expect {
	case ExpectStarsRecipient:
		recipient, err := NormalizeRecipient(text)
		if err != nil {
			return nil, err
		}
		next := Conversation{Expect: ExpectStarsQuantity, Recipient: recipient}
		if err := s.SetExpectation(ctx, userID, next); err != nil {
			return nil, err
		}
		return &InputOutcome{Next: next.Expect, Recipient: recipient}, nil

	case ExpectStarsQuantity:
		quantity, err := ParseStarsQuantity(text)
		if err != nil {
			return nil, err
		}
		price, err := s.catalog.StarsPrice(quantity)
		if err != nil {
			return nil, err
		}
		return s.complete(ctx, userID, models.KindStars, conv.Recipient, models.StarsDetails{Quantity: quantity}, price)

	case ExpectPremiumRecipient:
		recipient, err := NormalizeRecipient(text)
		if err != nil {
			return nil, err
		}
		price := conv.Price
		if !price.IsPos() {
			if price, err = s.catalog.PremiumPrice(conv.Period); err != nil {
				return nil, err
			}
		}
		return s.complete(ctx, userID, models.KindPremium, recipient, models.PremiumDetails{Period: conv.Period}, price)

	case ExpectExchangeAmount:
		details, err := s.catalog.Exchange(text)
		if err != nil {
			return nil, err
		}
		return s.complete(ctx, userID, models.KindExchange, "", details, details.SourceAmount)

	case ExpectCalculation:
		result, err := calc.Evaluate(text)
		if err != nil {
			return nil, &ValidationError{Field: "expression", Message: calcMessage(err), Err: err}
		}
		return &InputOutcome{Calculated: true, Expression: calc.Normalize(text), Result: result}, nil

	case ExpectPaymentProof:
		return nil, invalid("proof", "пришлите фото или скриншот перевода")

	default:
		s.logger.Warn("dropping unknown conversation step", zap.Int64("user_id", userID), zap.String("expect", string(conv.Expect)))
		_ = s.Cancel(ctx, userID)
		return nil, ErrNoExpectation
	}
}

func (s *ConversationService) complete(ctx context.Context, userID int64, kind models.OrderKind, recipient string, details models.OrderDetails, amount decimal.Decimal) (*InputOutcome, error) {
	order, err := s.orders.Create(ctx, userID, kind, recipient, details, amount)
	if err != nil {
		return nil, err
	}
	if err := s.Cancel(ctx, userID); err != nil {
		s.logger.Warn("conversation not cleared after order", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return &InputOutcome{Order: order}, nil
}

// ConsumeProof attaches a payment screenshot to the order the user is paying.
func (s *ConversationService) ConsumeProof(ctx context.Context, userID int64, proof models.PaymentProof) (*models.Order, error) {
	conv, ok, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok || conv.Expect != ExpectPaymentProof {
		return nil, ErrNoExpectation
	}

	order, err := s.orders.AttachPaymentProof(ctx, conv.OrderID, proof)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrOrderNotFound) {
			_ = s.Cancel(ctx, userID)
		}
		return nil, err
	}
	if err := s.Cancel(ctx, userID); err != nil {
		s.logger.Warn("conversation not cleared after proof", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func calcMessage(err error) string {
	switch {
	case errors.Is(err, calc.ErrInvalidCharacters):
		return "выражение содержит недопустимые символы"
	case errors.Is(err, calc.ErrDivisionByZero):
		return "деление на ноль"
	default:
		return "не удалось вычислить выражение"
	}
}
