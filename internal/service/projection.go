package service

import (
	"time"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

// Проекции заказа для внешнего слоя. Чистое отображение без бизнес-логики:
// полная карточка заказа и краткая строка для списков.

// OrderItemResponse — позиция заказа в полной карточке
type OrderItemResponse struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderResponse — полная карточка заказа
type OrderResponse struct {
	ID            int64                `json:"id"`
	UserID        int64                `json:"user_id"`
	OrderNumber   string               `json:"order_number"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`

	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	ShippingCost float64 `json:"shipping_cost"`
	Total        float64 `json:"total"`

	ShippingName       string  `json:"shipping_name"`
	ShippingEmail      string  `json:"shipping_email"`
	ShippingPhone      *string `json:"shipping_phone"`
	ShippingAddress    string  `json:"shipping_address"`
	ShippingCity       string  `json:"shipping_city"`
	ShippingState      *string `json:"shipping_state"`
	ShippingPostalCode string  `json:"shipping_postal_code"`
	ShippingCountry    string  `json:"shipping_country"`

	Notes *string `json:"notes"`

	Items []OrderItemResponse `json:"items"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

// OrderSummary — строка списка заказов
type OrderSummary struct {
	ID            int64                `json:"id"`
	OrderNumber   string               `json:"order_number"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Total         float64              `json:"total"`
	ItemsCount    int                  `json:"items_count"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NewOrderResponse строит полную карточку заказа с позициями
func NewOrderResponse(order *models.Order) *OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			CreatedAt:   item.CreatedAt,
		})
	}

	return &OrderResponse{
		ID:                 order.ID,
		UserID:             order.UserID,
		OrderNumber:        order.OrderNumber,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		Subtotal:           order.Subtotal,
		Tax:                order.Tax,
		ShippingCost:       order.ShippingCost,
		Total:              order.Total,
		ShippingName:       order.ShippingName,
		ShippingEmail:      order.ShippingEmail,
		ShippingPhone:      order.ShippingPhone,
		ShippingAddress:    order.ShippingAddress,
		ShippingCity:       order.ShippingCity,
		ShippingState:      order.ShippingState,
		ShippingPostalCode: order.ShippingPostalCode,
		ShippingCountry:    order.ShippingCountry,
		Notes:              order.Notes,
		Items:              items,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
		PaidAt:             order.PaidAt,
		ShippedAt:          order.ShippedAt,
		DeliveredAt:        order.DeliveredAt,
	}
}

// NewOrderSummary строит краткую строку для списка заказов
func NewOrderSummary(order *models.Order) *OrderSummary {
	itemsCount := order.ItemsCount
	if itemsCount == 0 {
		itemsCount = len(order.Items)
	}
	return &OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		ItemsCount:    itemsCount,
		CreatedAt:     order.CreatedAt,
	}
}
