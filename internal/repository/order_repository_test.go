package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/DigiStoreBot/internal/models"
)

var orderCols = []string{"id", "user_id", "kind", "recipient", "details", "amount", "payment_method", "status", "invoice_id", "created_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestOrderCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (user_id, kind, recipient, details, amount, payment_method, status)")).
		WithArgs(int64(42), "stars", "user_123", `{"stars":50}`, "75.00", "card", "pending").
		WillReturnResult(sqlmock.NewResult(7, 1))

	order, err := repo.Create(context.Background(), &models.Order{
		UserID:        42,
		Kind:          models.KindStars,
		Recipient:     "user_123",
		Details:       models.StarsDetails{Quantity: 50},
		Amount:        decimal.MustParse("75.00"),
		PaymentMethod: models.PaymentCard,
		Status:        models.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
}

func TestOrderCreateRequiresDetails(t *testing.T) {
	db, _ := newMock(t)
	repo := NewOrderRepository(db)

	_, err := repo.Create(context.Background(), &models.Order{Kind: models.KindStars})
	assert.Error(t, err)
}

func TestOrderGetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(
			int64(3), int64(42), "exchange", "",
			[]byte(`{"amount_rub":"1000.00","amount_usd":"11.76","exchange_rate":"85.0","payment_photo":"file-1"}`),
			"1000.00", "card", "waiting_confirmation", "", created,
		))

	order, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, models.KindExchange, order.Kind)
	assert.Equal(t, models.StatusWaitingConfirmation, order.Status)
	assert.Equal(t, "1000.00", order.Amount.String())
	assert.Equal(t, "file-1", order.Proof.FileID)
	d, ok := order.Details.(models.ExchangeDetails)
	require.True(t, ok)
	assert.Equal(t, "11.76", d.TargetAmount.String())
	assert.Equal(t, created, order.CreatedAt)
}

func TestOrderGetByIDMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	order, err := repo.GetByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestOrderUpdateStatusCompareAndSet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	query := regexp.QuoteMeta("UPDATE orders SET status = ? WHERE id = ? AND status = ?")

	mock.ExpectExec(query).WithArgs("confirmed", int64(5), "waiting_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("confirmed", int64(5), "waiting_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), 5, models.StatusWaitingConfirmation, models.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(context.Background(), 5, models.StatusWaitingConfirmation, models.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, ok, "second writer loses")
}

func TestOrderUpdatePayment(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET payment_method = ?, invoice_id = NULLIF(?, ''), status = ?")).
		WithArgs("crypto", "IV123", "waiting_crypto", int64(5), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdatePayment(context.Background(), 5, models.PaymentCrypto, "IV123", models.StatusPending, models.StatusWaitingCrypto)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderAttachProof(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("JSON_SET(COALESCE(details, JSON_OBJECT()), '$.payment_photo', ?, '$.payment_photo_archive', ?)")).
		WithArgs("file-2", "https://cdn/p.jpg", "waiting_confirmation", int64(5), "waiting_payment").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AttachProof(context.Background(), 5,
		models.PaymentProof{FileID: "file-2", ArchiveURL: "https://cdn/p.jpg"},
		models.StatusWaitingPayment, models.StatusWaitingConfirmation)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderListActive(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status NOT IN (?, ?)")).
		WithArgs("completed", "cancelled", 20).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(int64(9), int64(1), "premium", "bob", []byte(`{"period":"1y"}`), "2716.59", "crypto", "waiting_crypto", "IV9", now).
			AddRow(int64(8), int64(2), "stars", "amy", []byte(`{"stars":100}`), "150.00", "card", "pending", "", now))

	orders, err := repo.ListActive(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(9), orders[0].ID)
	assert.Equal(t, models.PremiumDetails{Period: models.Premium1Year}, orders[0].Details)
	assert.Equal(t, "IV9", orders[0].InvoiceID)
	assert.Equal(t, models.StarsDetails{Quantity: 100}, orders[1].Details)
}

func TestOrderCountForUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders WHERE user_id = ?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountForUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOrderStats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "today", "active"}).AddRow(10, 2, 4))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "today", "amount", "amount_today"}).
			AddRow("pending", 3, 1, "300.00", "100.00").
			AddRow("confirmed", 2, 1, "200.50", "100.25").
			AddRow("completed", 4, 0, "1000.00", "0").
			AddRow("cancelled", 1, 0, "50.00", "0"))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Users)
	assert.Equal(t, 2, stats.UsersToday)
	assert.Equal(t, 4, stats.ActiveUsers24h)
	assert.Equal(t, 10, stats.Orders)
	assert.Equal(t, 2, stats.OrdersToday)
	assert.Equal(t, 5, stats.ActiveOrders)
	assert.Equal(t, "1200.50", stats.Revenue.String())
	assert.Equal(t, "100.25", stats.RevenueToday.String())
	assert.Equal(t, 4, stats.OrdersByStatus[models.StatusCompleted])
}
