package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/storage"
)

// ValidateCartForCheckout проверяет, что корзина готова к оформлению.
// Возвращает флаг валидности и полный список причин отказа.
func (s *checkoutService) ValidateCartForCheckout(ctx context.Context, tx *sql.Tx, cart *models.Cart) (bool, []string, error) {
	reasons, _, err := s.validateCart(ctx, tx, cart)
	if err != nil {
		return false, nil, err
	}
	return len(reasons) == 0, reasons, nil
}

// validateCart — внутренняя проверка корзины. Помимо причин отказа возвращает
// найденные товары, чтобы оформление не запрашивало их повторно.
//
// Терминальные проверки (нет корзины, неактивный статус, пустая корзина) дают
// одну причину и прекращают проверку. Проблемы позиций накапливаются по всем
// позициям сразу, а не до первой ошибки.
func (s *checkoutService) validateCart(ctx context.Context, tx *sql.Tx, cart *models.Cart) ([]string, map[int64]*models.Product, error) {
	if cart == nil {
		return []string{"Cart not found"}, nil, nil
	}

	if cart.Status != models.CartStatusActive {
		return []string{fmt.Sprintf("Cart status is %s, must be active", cart.Status)}, nil, nil
	}

	if len(cart.Items) == 0 {
		return []string{"Cart is empty"}, nil, nil
	}

	var reasons []string
	products := make(map[int64]*models.Product, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.productRepo.GetProductByID(ctx, tx, item.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				reasons = append(reasons, fmt.Sprintf("Product %d no longer available", item.ProductID))
				continue
			}
			return nil, nil, err
		}

		// Снятый с продажи товар неотличим от удалённого
		if !product.IsActive {
			reasons = append(reasons, fmt.Sprintf("Product %d no longer available", item.ProductID))
			continue
		}

		// Сравнение цен строгое: любое расхождение со снимком в корзине — отказ
		if product.Price != item.UnitPrice {
			reasons = append(reasons, fmt.Sprintf("Price changed for %s: was $%.2f, now $%.2f",
				product.Name, item.UnitPrice, product.Price))
			continue
		}
		products[item.ProductID] = product
	}

	return reasons, products, nil
}
