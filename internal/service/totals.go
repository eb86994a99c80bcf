package service

import (
	"math"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

// round2 округляет до 2 знаков по стандартным правилам
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateOrderTotals считает суммы заказа по позициям корзины.
// Подитог накапливается в полной точности, округление применяется
// к каждому итоговому полю отдельно, чтобы не накапливать ошибку округления.
func CalculateOrderTotals(cart *models.Cart, taxRate, shippingCost float64) models.OrderTotals {
	var subtotal float64
	for _, item := range cart.Items {
		subtotal += float64(item.Quantity) * item.UnitPrice
	}
	tax := subtotal * taxRate

	return models.OrderTotals{
		Subtotal:     round2(subtotal),
		Tax:          round2(tax),
		ShippingCost: round2(shippingCost),
		Total:        round2(subtotal + tax + shippingCost),
	}
}
