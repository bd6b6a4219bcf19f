package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/digkill/DigiStoreBot/internal/config"
	"github.com/digkill/DigiStoreBot/internal/models"
	"github.com/digkill/DigiStoreBot/internal/state"
)

const (
	testOperator = int64(9001)
	testUser     = int64(42)
	otherUser    = int64(43)
)

type memoryOrders struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]models.Order
	writes int
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: make(map[int64]models.Order)}
}

func (m *memoryOrders) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *order
	stored.ID = m.nextID
	m.orders[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *memoryOrders) GetByID(_ context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (m *memoryOrders) cas(id int64, from, to models.OrderStatus, apply func(*models.Order)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.Status != from {
		return false
	}
	order.Status = to
	if apply != nil {
		apply(&order)
	}
	m.orders[id] = order
	m.writes++
	return true
}

func (m *memoryOrders) UpdateStatus(_ context.Context, id int64, from, to models.OrderStatus) (bool, error) {
	return m.cas(id, from, to, nil), nil
}

func (m *memoryOrders) UpdatePayment(_ context.Context, id int64, method models.PaymentMethod, invoiceID string, from, to models.OrderStatus) (bool, error) {
	return m.cas(id, from, to, func(o *models.Order) {
		o.PaymentMethod = method
		o.InvoiceID = invoiceID
	}), nil
}

func (m *memoryOrders) AttachProof(_ context.Context, id int64, proof models.PaymentProof, from, to models.OrderStatus) (bool, error) {
	return m.cas(id, from, to, func(o *models.Order) { o.Proof = proof }), nil
}

func (m *memoryOrders) ListActive(_ context.Context, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryOrders) ListAll(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryOrders) CountForUser(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memoryOrders) Stats(_ context.Context) (*models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.Stats{Orders: len(m.orders), OrdersByStatus: map[models.OrderStatus]int{}}
	for _, o := range m.orders {
		stats.OrdersByStatus[o.Status]++
	}
	return stats, nil
}

func (m *memoryOrders) status(t *testing.T, id int64) models.OrderStatus {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	require.True(t, ok)
	return order.Status
}

func (m *memoryOrders) put(order models.Order) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	m.orders[order.ID] = order
	return order.ID
}

type fakeGateway struct {
	status    models.InvoiceStatus
	statusErr error
	createErr error
	created   []decimal.Decimal
	polls     int
}

func (g *fakeGateway) CreateInvoice(_ context.Context, amount decimal.Decimal, _ string) (*models.Invoice, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, amount)
	return &models.Invoice{ID: "inv-1", PayURL: "https://t.me/CryptoBot?start=inv-1", Asset: "USDT"}, nil
}

func (g *fakeGateway) InvoiceStatus(_ context.Context, _ string) (models.InvoiceStatus, error) {
	g.polls++
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.status, nil
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) kinds() []EventKind {
	var out []EventKind
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

var errBoom = errors.New("boom")

type harness struct {
	orders   *memoryOrders
	gateway  *fakeGateway
	notifier *recordingNotifier
	svc      *OrderService
	catalog  *Catalog
	conv     *ConversationService
	gate     *OperatorGate
	pending  *state.MemoryStore[PendingAction]
}

func testCatalog() *Catalog {
	return NewCatalog(config.Config{
		StarRate:       decimal.MustParse("1.5"),
		USDRate:        decimal.MustParse("85.0"),
		PremiumPrice3M: decimal.MustParse("1124.11"),
		PremiumPrice6M: decimal.MustParse("1498.81"),
		PremiumPrice1Y: decimal.MustParse("2716.59"),
	})
}

func newHarness(t *testing.T, withGateway bool) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	h := &harness{
		orders:   newMemoryOrders(),
		gateway:  &fakeGateway{status: models.InvoicePending},
		notifier: &recordingNotifier{},
		catalog:  testCatalog(),
		pending:  state.NewMemoryStore[PendingAction](PendingActionTTL),
	}
	var gateway PaymentGateway
	if withGateway {
		gateway = h.gateway
	}
	h.svc = NewOrderService(h.orders, gateway, h.notifier, []int64{testOperator}, logger)
	h.conv = NewConversationService(state.NewMemoryStore[Conversation](0), h.svc, h.catalog, logger)
	h.gate = NewOperatorGate(h.pending, h.svc, logger)
	return h
}

func (h *harness) order(status models.OrderStatus) int64 {
	return h.orders.put(models.Order{
		UserID:        testUser,
		Kind:          models.KindStars,
		Recipient:     "user_123",
		Details:       models.StarsDetails{Quantity: 50},
		Amount:        decimal.MustParse("75.00"),
		PaymentMethod: models.PaymentCard,
		Status:        status,
	})
}
