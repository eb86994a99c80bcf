package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/shop-checkout/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-checkout/internal/service"
	"github.com/linemk/shop-checkout/internal/storage"
)

const (
	defaultOrdersLimit = 50
	maxOrdersLimit     = 100
)

// ListOrdersHandler обрабатывает запрос GET /api/orders.
// Возвращает краткий список заказов пользователя, новые первыми.
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		limit := defaultOrdersLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		if limit > maxOrdersLimit {
			limit = maxOrdersLimit
		}

		offset := 0
		if v := r.URL.Query().Get("offset"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 {
				http.Error(w, "invalid offset", http.StatusBadRequest)
				return
			}
			offset = parsed
		}

		summaries, err := orderService.ListOrders(r.Context(), userID, limit, offset)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// GetOrderHandler обрабатывает запрос GET /api/orders/{orderID}.
// Чужой или несуществующий заказ — одинаковый ответ 404.
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
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

		order, err := orderService.GetOrderByID(r.Context(), orderID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// GetOrderByNumberHandler обрабатывает запрос GET /api/orders/number/{orderNumber}
func GetOrderByNumberHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderByNumberHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderNumber := chi.URLParam(r, "orderNumber")
		if orderNumber == "" {
			http.Error(w, "order number is required", http.StatusBadRequest)
			return
		}

		order, err := orderService.GetOrderByNumber(r.Context(), orderNumber, userID)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order by number", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// CancelOrderHandler обрабатывает запрос POST /api/orders/{orderID}/cancel.
// Отмена разрешена только из pending и confirmed.
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
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

		order, err := orderService.CancelOrder(r.Context(), orderID, userID)
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
			logger.Error("failed to cancel order", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(order); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
