package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/models"
	"github.com/digkill/DigiStoreBot/internal/state"
)

// PendingActionTTL bounds how long a proposed operator action stays executable.
const PendingActionTTL = 10 * time.Minute

type OperatorAction string

const (
	ActionConfirm     OperatorAction = "confirm"
	ActionReject      OperatorAction = "reject"
	ActionDeliver     OperatorAction = "deliver"
	ActionCheckCrypto OperatorAction = "check_crypto"
)

func (a OperatorAction) Valid() bool {
	switch a {
	case ActionConfirm, ActionReject, ActionDeliver, ActionCheckCrypto:
		return true
	}
	return false
}

// PendingAction is an operator action waiting for the second press.
type PendingAction struct {
	Nonce      string         `json:"nonce"`
	Action     OperatorAction `json:"action"`
	OrderID    int64          `json:"order_id"`
	ProposedAt time.Time      `json:"proposed_at"`
}

type GateResult struct {
	Action OperatorAction
	Order  *models.Order
	Poll   PollResult
}

// OperatorGate makes irreversible operator actions take two presses. Orders
// are only touched by Execute.
type OperatorGate struct {
	pending  state.Store[PendingAction]
	orders   *OrderService
	logger   *zap.Logger
	newNonce func() string
	now      func() time.Time
}

func NewOperatorGate(pending state.Store[PendingAction], orders *OrderService, logger *zap.Logger) *OperatorGate {
	return &OperatorGate{
		pending:  pending,
		orders:   orders,
		logger:   logger,
		newNonce: uuid.NewString,
		now:      time.Now,
	}
}

// Propose records the action for the operator, replacing an earlier proposal.
func (g *OperatorGate) Propose(ctx context.Context, operatorID int64, action OperatorAction, orderID int64) (*PendingAction, *models.Order, error) {
	if !g.orders.IsOperator(operatorID) {
		return nil, nil, ErrUnauthorized
	}
	if !action.Valid() {
		return nil, nil, fmt.Errorf("unknown operator action %q", action)
	}
	order, err := g.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status.Terminal() {
		return nil, order, ErrInvalidTransition
	}

	pending := PendingAction{
		Nonce:      g.newNonce(),
		Action:     action,
		OrderID:    orderID,
		ProposedAt: g.now().UTC(),
	}
	if err := g.pending.Put(ctx, operatorID, pending); err != nil {
		return nil, nil, fmt.Errorf("store pending action: %w", err)
	}
	return &pending, order, nil
}

// Execute runs the proposed action when nonce matches the operator's pending
// record. The record is consumed whether or not the action succeeds.
func (g *OperatorGate) Execute(ctx context.Context, operatorID int64, nonce string) (*GateResult, error) {
	if !g.orders.IsOperator(operatorID) {
		return nil, ErrUnauthorized
	}
	pending, ok, err := g.pending.Get(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("load pending action: %w", err)
	}
	if !ok || pending.Nonce != nonce {
		return nil, ErrNoPendingAction
	}
	if err := g.pending.Delete(ctx, operatorID); err != nil {
		return nil, fmt.Errorf("clear pending action: %w", err)
	}

	result := &GateResult{Action: pending.Action}
	switch pending.Action {
	case ActionConfirm:
		result.Order, err = g.orders.ConfirmByOperator(ctx, pending.OrderID, operatorID)
	case ActionReject:
		result.Order, err = g.orders.RejectByOperator(ctx, pending.OrderID, operatorID)
	case ActionDeliver:
		result.Order, err = g.orders.MarkDelivered(ctx, pending.OrderID, operatorID)
	case ActionCheckCrypto:
		result.Poll, result.Order, err = g.orders.PollCryptoInvoice(ctx, pending.OrderID)
	default:
		err = fmt.Errorf("unknown operator action %q", pending.Action)
	}
	if err != nil {
		g.logger.Info("operator action failed",
			zap.Int64("operator_id", operatorID),
			zap.String("action", string(pending.Action)),
			zap.Int64("order_id", pending.OrderID),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

// Abort drops the operator's pending action, if any.
func (g *OperatorGate) Abort(ctx context.Context, operatorID int64) error {
	if err := g.pending.Delete(ctx, operatorID); err != nil {
		return fmt.Errorf("abort pending action: %w", err)
	}
	return nil
}
