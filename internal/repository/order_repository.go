package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/govalues/decimal"

	"github.com/digkill/DigiStoreBot/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, user_id, kind, COALESCE(recipient, ''), details, amount, payment_method, status, COALESCE(invoice_id, ''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o       models.Order
		details []byte
		amount  string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Kind, &o.Recipient, &details, &amount, &o.PaymentMethod, &o.Status, &o.InvoiceID, &o.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.Amount, err = decimal.Parse(amount); err != nil {
		return nil, fmt.Errorf("order %d amount %q: %w", o.ID, amount, err)
	}
	if o.Details, o.Proof, err = models.DecodeDetails(o.Kind, details); err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}
	return &o, nil
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	details, err := models.EncodeDetails(order.Details, order.Proof)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	const query = `
INSERT INTO orders (user_id, kind, recipient, details, amount, payment_method, status)
VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		order.UserID, order.Kind, order.Recipient, string(details), order.Amount.String(), order.PaymentMethod, order.Status)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	created := *order
	created.ID = id
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	return &created, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return order, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// UpdateStatus moves the order from one status to another. It reports false
// when the order is not in status from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, from, to models.OrderStatus) (bool, error) {
	const query = `UPDATE orders SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return affectedOne(res)
}

func (r *OrderRepository) UpdatePayment(ctx context.Context, id int64, method models.PaymentMethod, invoiceID string, from, to models.OrderStatus) (bool, error) {
	const query = `
UPDATE orders SET payment_method = ?, invoice_id = NULLIF(?, ''), status = ?
WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, method, invoiceID, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update order payment: %w", err)
	}
	return affectedOne(res)
}

// AttachProof writes the proof into the details document in place. The
// connection must use clientFoundRows so that rewriting an identical proof
// still counts as a match.
func (r *OrderRepository) AttachProof(ctx context.Context, id int64, proof models.PaymentProof, from, to models.OrderStatus) (bool, error) {
	const query = `
UPDATE orders
SET details = JSON_SET(COALESCE(details, JSON_OBJECT()), '$.payment_photo', ?, '$.payment_photo_archive', ?),
    status = ?
WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, proof.FileID, proof.ArchiveURL, to, id, from)
	if err != nil {
		return false, fmt.Errorf("attach proof: %w", err)
	}
	return affectedOne(res)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// ListActive returns orders that still need attention, newest first.
func (r *OrderRepository) ListActive(ctx context.Context, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
WHERE status NOT IN (?, ?)
ORDER BY created_at DESC, id DESC
LIMIT ?`
	return r.list(ctx, query, models.StatusCompleted, models.StatusCancelled, limit)
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY id`
	return r.list(ctx, query)
}

func (r *OrderRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE user_id = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count user orders: %w", err)
	}
	return n, nil
}

// Stats gathers the dashboard counters. Revenue counts confirmed and
// completed orders only.
func (r *OrderRepository) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		OrdersByStatus: make(map[models.OrderStatus]int),
		Revenue:        decimal.Zero,
		RevenueToday:   decimal.Zero,
		GeneratedAt:    time.Now().UTC(),
	}

	const usersQuery = `
SELECT COUNT(*),
       COALESCE(SUM(DATE(created_at) = CURDATE()), 0),
       COALESCE(SUM(last_active_at >= NOW() - INTERVAL 1 DAY), 0)
FROM users`
	if err := r.db.QueryRowContext(ctx, usersQuery).Scan(&stats.Users, &stats.UsersToday, &stats.ActiveUsers24h); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	const ordersQuery = `
SELECT status,
       COUNT(*),
       COALESCE(SUM(DATE(created_at) = CURDATE()), 0),
       COALESCE(SUM(amount), 0),
       COALESCE(SUM(CASE WHEN DATE(created_at) = CURDATE() THEN amount ELSE 0 END), 0)
FROM orders
GROUP BY status`
	rows, err := r.db.QueryContext(ctx, ordersQuery)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status              models.OrderStatus
			count, today        int
			amount, amountToday string
		)
		if err := rows.Scan(&status, &count, &today, &amount, &amountToday); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.OrdersByStatus[status] = count
		stats.Orders += count
		stats.OrdersToday += today
		if !status.Terminal() {
			stats.ActiveOrders += count
		}
		if status != models.StatusConfirmed && status != models.StatusCompleted {
			continue
		}
		if stats.Revenue, err = addAmount(stats.Revenue, amount); err != nil {
			return nil, err
		}
		if stats.RevenueToday, err = addAmount(stats.RevenueToday, amountToday); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order stats: %w", err)
	}
	return stats, nil
}

func addAmount(sum decimal.Decimal, raw string) (decimal.Decimal, error) {
	v, err := decimal.Parse(raw)
	if err != nil {
		return sum, fmt.Errorf("parse revenue %q: %w", raw, err)
	}
	total, err := sum.Add(v)
	if err != nil {
		return sum, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}
