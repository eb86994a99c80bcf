package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-checkout/internal/service"
)

// ValidationErrorResponse — ответ с полным списком причин отказа,
// чтобы клиент мог показать их все сразу, а не по одной.
type ValidationErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// CheckoutHandler обрабатывает запрос POST /api/checkout.
// Полезная нагрузка — адрес доставки и примечания; корзина пользователя
// находится по userID из JWT и конвертируется в заказ.
func CheckoutHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		var req models.CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		// Извлекаем userID из контекста (установленный JWT middleware)
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		order, err := checkoutService.Checkout(r.Context(), userID, req)
		if err != nil {
			var validationErr *service.CartValidationError
			if errors.As(err, &validationErr) {
				logger.Warn("cart validation failed", slog.Any("reasons", validationErr.Reasons))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				if encErr := json.NewEncoder(w).Encode(ValidationErrorResponse{
					Message: "Cart validation failed",
					Errors:  validationErr.Reasons,
				}); encErr != nil {
					logger.Error("failed to encode response", slog.Any("error", encErr))
				}
				return
			}
			logger.Error("failed to create order", slog.Any("error", err))
			http.Error(w, "failed to create order", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(service.NewOrderResponse(order)); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
