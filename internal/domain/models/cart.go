package models

import "time"

// CartStatus — статус корзины
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

func (s CartStatus) String() string {
	return string(s)
}

// Cart представляет корзину пользователя. Ядро оформления заказа читает её
// и меняет только статус — на converted при успешном оформлении.
type Cart struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Status    CartStatus  `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Items     []*CartItem `json:"items"`
}

// CartItem — позиция корзины. UnitPrice — цена, зафиксированная в момент
// добавления товара, а не текущая цена из каталога.
type CartItem struct {
	ID        int64   `json:"id"`
	CartID    int64   `json:"cart_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}
