package models

// ShippingAddress — адрес доставки из запроса на оформление заказа.
// Поля копируются в заказ как есть и дальше не пересчитываются.
type ShippingAddress struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Address    string  `json:"address" validate:"required"`
	City       string  `json:"city" validate:"required,max=100"`
	State      *string `json:"state" validate:"omitempty,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,max=20"`
	Country    string  `json:"country" validate:"required,max=100"`
}

// CheckoutRequest — входные данные оформления заказа
type CheckoutRequest struct {
	ShippingAddress ShippingAddress `json:"shipping_address" validate:"required"`
	Notes           *string         `json:"notes" validate:"omitempty,max=1000"`
}
