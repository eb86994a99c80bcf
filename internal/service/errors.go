package service

import (
	"fmt"
	"strings"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

// CartValidationError — ошибка проверки корзины перед оформлением.
// Несёт полный список причин, чтобы клиент мог показать их все сразу.
type CartValidationError struct {
	Reasons []string
}

func (e *CartValidationError) Error() string {
	return "cart validation failed: " + strings.Join(e.Reasons, ", ")
}

// CancelNotAllowedError — попытка отменить заказ в статусе, из которого отмена запрещена
type CancelNotAllowedError struct {
	Status models.OrderStatus
}

func (e *CancelNotAllowedError) Error() string {
	return fmt.Sprintf("cannot cancel order with status %s", e.Status)
}
