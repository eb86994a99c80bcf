package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

var ErrCartNotFound = errors.New("cart not found")

// CartStorage описывает методы для работы с корзинами.
// Ядро оформления читает корзину и переводит её в статус converted.
type CartStorage interface {
	// GetActiveCartByUserID возвращает активную корзину пользователя вместе с позициями.
	GetActiveCartByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	// MarkCartConverted переводит корзину в статус converted в рамках транзакции оформления.
	// Защита от двойной конвертации — условие по текущему статусу.
	MarkCartConverted(ctx context.Context, tx *sql.Tx, cartID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetActiveCartByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, status, created_at, updated_at FROM carts WHERE user_id = $1 AND status = 'active'",
		userID)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.Status, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, cart_id, product_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 ORDER BY id",
		cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) MarkCartConverted(ctx context.Context, tx *sql.Tx, cartID int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE carts SET status = 'converted', updated_at = NOW() WHERE id = $1 AND status = 'active'",
		cartID)
	if err != nil {
		return fmt.Errorf("failed to mark cart converted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}
