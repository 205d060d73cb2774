package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gkpcrackers/storefront/internal/domain/order"
)

const (
	nextOrderNumberSQL = `SELECT 'GKP-' || to_char(now(), 'YYYYMMDD') || '-' ||
		lpad(nextval('order_number_seq')::text, 4, '0')`

	insertOrderSQL = `INSERT INTO orders
		(order_number, customer_id, customer_name, customer_phone, customer_address, notes,
		 total_items, total_amount, discount_amount, final_amount, user_type, status)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, product_name, product_code, quantity, unit_price, mrp, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	orderColumns = `id, order_number, COALESCE(customer_id::text, ''), customer_name,
		customer_phone, customer_address, notes, total_items, total_amount,
		discount_amount, final_amount, user_type, status, created_at`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + `
		FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`

	listOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT id, order_id, product_name, product_code, quantity,
		unit_price, mrp, total_price
		FROM order_items WHERE order_id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and its item snapshots in one transaction.
// The order number is drawn from the database sequence inside the same
// transaction, and the item rows reference the freshly generated order id.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := tx.QueryRow(ctx, nextOrderNumberSQL).Scan(&o.OrderNumber); err != nil {
		return fmt.Errorf("generating order number: %w", err)
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.OrderNumber, o.CustomerID, o.Customer.Name, o.Customer.Phone,
		o.Customer.Address, o.Customer.Notes, o.TotalItems, o.Subtotal,
		o.WalletDiscount, o.FinalAmount, string(o.Classification), string(o.Status),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(insertOrderItemSQL,
			o.ID, item.ProductName, item.ProductCode, item.Quantity,
			item.UnitPrice, item.MRP, item.LineTotal,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("creating items for order %q: %w", o.OrderNumber, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.OrderNumber, err)
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	return nil
}

// ListByCustomer returns a customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %q: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns all orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListItems returns the item snapshots for an order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, listOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductName, &it.ProductCode,
			&it.Quantity, &it.UnitPrice, &it.MRP, &it.LineTotal)
		return it, err
	})
}

// UpdateStatus moves the order from one status to another. The WHERE clause
// includes the expected current status so a concurrent transition loses
// cleanly instead of overwriting.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("updating status for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Zero rows means the order is gone or a concurrent transition
		// already moved it off the expected status. Re-read to tell the
		// two apart.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return &order.InvalidTransitionError{From: current.Status, To: to}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		userType string
		status   string
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.Customer.Name, &o.Customer.Phone,
		&o.Customer.Address, &o.Customer.Notes, &o.TotalItems, &o.Subtotal,
		&o.WalletDiscount, &o.FinalAmount, &userType, &status, &o.CreatedAt,
	)
	o.Classification = profileClass(userType)
	o.Status = order.Status(status)
	return o, err
}
