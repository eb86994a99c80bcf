package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-checkout/internal/service"
	"github.com/linemk/shop-checkout/internal/storage"
)

// UpdateOrderStatusRequest — входной JSON для смены статуса исполнения
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
}

// UpdatePaymentStatusRequest — входной JSON для смены статуса оплаты.
// Сама обработка платежа происходит снаружи, сюда приходит только результат.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid failed refunded"`
}

// UpdateOrderStatusHandler обрабатывает запрос PATCH /api/orders/{orderID}/status
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req UpdateOrderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		order, err := orderService.UpdateOrderStatus(r.Context(), orderID, userID, models.OrderStatus(req.Status))
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			var cancelErr *service.CancelNotAllowedError
			if errors.As(err, &cancelErr) {
				http.Error(w, cancelErr.Error(), http.StatusBadRequest)
				return
			}
			logger.Error("failed to update order status", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// UpdatePaymentStatusHandler обрабатывает запрос PATCH /api/orders/{orderID}/payment
func UpdatePaymentStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdatePaymentStatusHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req UpdatePaymentStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		order, err := orderService.UpdatePaymentStatus(r.Context(), orderID, userID, models.PaymentStatus(req.PaymentStatus))
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to update payment status", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
