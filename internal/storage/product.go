package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для чтения каталога товаров.
// Ядру оформления заказа нужен только поиск по id для сверки цен.
type ProductStorage interface {
	// GetProductByID получает товар по id в рамках транзакции оформления.
	GetProductByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) GetProductByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := "SELECT id, name, price, is_active FROM products WHERE id = $1"
	row := tx.QueryRowContext(ctx, query, id)
	if err := row.Scan(&product.ID, &product.Name, &product.Price, &product.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}
