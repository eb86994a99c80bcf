package models

import "time"

// OrderStatus — статус исполнения заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus — статус оплаты заказа, независимый от статуса исполнения
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s OrderStatus) String() string {
	return string(s)
}

// CanCancel — отменить можно только заказ, который ещё не взят в работу
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// Order представляет заказ — неизменяемый снимок корзины на момент оформления.
// После создания меняются только статусы, их производные временные метки и updated_at.
type Order struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	OrderNumber   string        `json:"order_number"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Total        float64 `json:"total"`

	// Адрес доставки — копия полей из запроса на оформление,
	// не ссылка на профиль пользователя
	ShippingName       string  `json:"shipping_name"`
	ShippingEmail      string  `json:"shipping_email"`
	ShippingPhone      *string `json:"shipping_phone"`
	ShippingAddress    string  `json:"shipping_address"`
	ShippingCity       string  `json:"shipping_city"`
	ShippingState      *string `json:"shipping_state"`
	ShippingPostalCode string  `json:"shipping_postal_code"`
	ShippingCountry    string  `json:"shipping_country"`

	Notes *string `json:"notes"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	Items []*OrderItem `json:"items,omitempty"`

	// ItemsCount заполняется подзапросом при выборке списка заказов
	ItemsCount int `json:"-"`
}

// OrderItem — позиция заказа. Название, цена и количество скопированы
// из корзины на момент оформления и после создания не меняются.
type OrderItem struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderTotals — результат расчёта сумм заказа, каждое поле округлено до 2 знаков
type OrderTotals struct {
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Total        float64 `json:"total"`
}
