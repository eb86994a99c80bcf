package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/shop-checkout/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderNumberConstraint — имя уникального ограничения на номер заказа.
// Ограничение в БД — авторитетная защита от коллизий номеров, сервис
// ловит его нарушение и повторяет оформление с новым номером.
const OrderNumberConstraint = "orders_order_number_key"

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ в рамках транзакции оформления и возвращает его id.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	// CreateOrderItem вставляет позицию заказа в рамках транзакции оформления.
	CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) (int64, error)
	// OrderNumberExists проверяет занятость номера заказа непосредственно перед вставкой.
	OrderNumberExists(ctx context.Context, tx *sql.Tx, orderNumber string) (bool, error)
	// GetOrderByID возвращает заказ с позициями, ограничиваясь заказами пользователя.
	GetOrderByID(ctx context.Context, orderID, userID int64) (*models.Order, error)
	// GetOrderByNumber возвращает заказ с позициями по человекочитаемому номеру.
	GetOrderByNumber(ctx context.Context, orderNumber string, userID int64) (*models.Order, error)
	// ListOrdersByUserID возвращает заказы пользователя, новые первыми, без позиций,
	// но с количеством позиций в ItemsCount.
	ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error)
	// LockOrderByID блокирует строку заказа для обновления статуса.
	LockOrderByID(ctx context.Context, tx *sql.Tx, orderID, userID int64) (*models.Order, error)
	// UpdateOrderState записывает изменяемые поля заказа: статусы, временные метки, updated_at.
	UpdateOrderState(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// GetOrderItems возвращает позиции заказа.
	GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

// orderColumns — общий список колонок заказа для всех выборок
const orderColumns = `id, user_id, order_number, status, payment_status,
	subtotal, tax, shipping_cost, total,
	shipping_name, shipping_email, shipping_phone, shipping_address,
	shipping_city, shipping_state, shipping_postal_code, shipping_country,
	notes, created_at, updated_at, paid_at, shipped_at, delivered_at`

func scanOrder(row *sql.Row) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &order.Status, &order.PaymentStatus,
		&order.Subtotal, &order.Tax, &order.ShippingCost, &order.Total,
		&order.ShippingName, &order.ShippingEmail, &order.ShippingPhone, &order.ShippingAddress,
		&order.ShippingCity, &order.ShippingState, &order.ShippingPostalCode, &order.ShippingCountry,
		&order.Notes, &order.CreatedAt, &order.UpdatedAt, &order.PaidAt, &order.ShippedAt, &order.DeliveredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (user_id, order_number, status, payment_status,
	          subtotal, tax, shipping_cost, total,
	          shipping_name, shipping_email, shipping_phone, shipping_address,
	          shipping_city, shipping_state, shipping_postal_code, shipping_country,
	          notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
	          RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		order.UserID, order.OrderNumber, order.Status, order.PaymentStatus,
		order.Subtotal, order.Tax, order.ShippingCost, order.Total,
		order.ShippingName, order.ShippingEmail, order.ShippingPhone, order.ShippingAddress,
		order.ShippingCity, order.ShippingState, order.ShippingPostalCode, order.ShippingCountry,
		order.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order item: %w", err)
	}
	return id, nil
}

func (r *orderRepository) OrderNumberExists(ctx context.Context, tx *sql.Tx, orderNumber string) (bool, error) {
	var exists bool
	row := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)", orderNumber)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1 AND user_id = $2"
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		return nil, err
	}
	items, err := r.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, orderNumber string, userID int64) (*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE order_number = $1 AND user_id = $2"
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber, userID))
	if err != nil {
		return nil, err
	}
	items, err := r.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.Order, error) {
	query := `SELECT id, user_id, order_number, status, payment_status, total, created_at,
	          (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS items_count
	          FROM orders o
	          WHERE user_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.OrderNumber, &order.Status, &order.PaymentStatus,
			&order.Total, &order.CreatedAt, &order.ItemsCount); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) LockOrderByID(ctx context.Context, tx *sql.Tx, orderID, userID int64) (*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE NOWAIT"
	order, err := scanOrder(tx.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "55P03" { // lock
			return nil, fmt.Errorf("order is locked, please try again: %w", err)
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateOrderState(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `UPDATE orders SET status = $1, payment_status = $2,
	          paid_at = $3, shipped_at = $4, delivered_at = $5, updated_at = NOW()
	          WHERE id = $6`
	res, err := tx.ExecContext(ctx, query,
		order.Status, order.PaymentStatus, order.PaidAt, order.ShippedAt, order.DeliveredAt, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price, created_at
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// IsOrderNumberConflict определяет нарушение уникальности номера заказа —
// единственная ошибка, при которой оформление повторяется.
func IsOrderNumberConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == OrderNumberConstraint
	}
	return false
}
